package checkout

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/arcay3dlabs/storefront/internal/cart"
	"github.com/arcay3dlabs/storefront/internal/orderlog"
	"github.com/arcay3dlabs/storefront/internal/ventify"
	pkgcheckout "github.com/arcay3dlabs/storefront/pkg/checkout"
	"github.com/arcay3dlabs/storefront/pkg/config"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/arcay3dlabs/storefront/pkg/logger"
	"github.com/arcay3dlabs/storefront/pkg/metrics"
	"github.com/shopspring/decimal"
)

type saleSubmitter interface {
	CreateSaleRequest(ctx context.Context, req ventify.SaleRequest) (*ventify.SaleRequestResult, error)
}

type orderAppender interface {
	Append(ctx context.Context, record orderlog.LocalOrderRecord) error
}

// Confirmation is what the shopper receives once the order is handed off.
type Confirmation struct {
	OrderID          string             `json:"orderId"`
	RequestNumber    string             `json:"requestNumber,omitempty"`
	HandoffURL       string             `json:"handoffUrl"`
	ConfirmationPath string             `json:"confirmationPath"`
	Message          string             `json:"message"`
	Totals           pkgcheckout.Totals `json:"totals"`
	// RemoteRegistered is false when the platform could not take the sale request.
	RemoteRegistered bool `json:"remoteRegistered"`
}

// Settings are the business values the reconciler needs.
type Settings struct {
	Pricing        pkgcheckout.Pricing
	RemoteTimeout  time.Duration
	WhatsAppNumber string
	BusinessName   string
	Location       *time.Location
}

// SettingsFromConfig maps the checkout configuration onto Settings.
func SettingsFromConfig(cfg config.CheckoutConfig) Settings {
	return Settings{
		Pricing:        pkgcheckout.PricingFromFloats(cfg.FreeShippingThreshold, cfg.FlatShippingFee),
		RemoteTimeout:  cfg.RemoteTimeout,
		WhatsAppNumber: cfg.WhatsAppNumber,
		BusinessName:   cfg.BusinessName,
		Location:       cfg.Location(),
	}
}

// Service turns a cart and a checkout form into a handed-off order.
type Service struct {
	sales    saleSubmitter
	orders   orderAppender
	settings Settings
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
	now      func() time.Time
}

func NewService(sales saleSubmitter, orders orderAppender, settings Settings, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Service, error) {
	if sales == nil {
		return nil, fmt.Errorf("sale submitter required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order log required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if settings.RemoteTimeout <= 0 {
		settings.RemoteTimeout = 10 * time.Second
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if strings.TrimSpace(settings.BusinessName) == "" {
		settings.BusinessName = "Arcay3Dlabs"
	}
	return &Service{
		sales:    sales,
		orders:   orders,
		settings: settings,
		logg:     logg,
		metrics:  m,
		now:      time.Now,
	}, nil
}

// Checkout validates the order, registers it with the platform when
// possible, keeps a local record, takes the ordered lines off the cart and
// returns the hand-off.
// Only an empty cart, an invalid form or a concurrent checkout block the
// order. Platform and local storage failures degrade silently.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart, form Form) (*Confirmation, error) {
	start := s.now()
	result := "error"
	defer func() {
		s.metrics.ObserveDuration(result, s.now().Sub(start))
	}()

	if err := c.TryBeginCheckout(); err != nil {
		result = "conflict"
		return nil, err
	}
	defer c.EndCheckout()

	lines := c.Lines()
	if len(lines) == 0 {
		result = "empty_cart"
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	form, err := ValidateForm(form)
	if err != nil {
		result = "invalid"
		return nil, err
	}

	conf, err := s.process(ctx, lines, form)
	if err != nil {
		return nil, err
	}

	c.RemoveCheckedOut(lines)
	result = "ok"
	return conf, nil
}

func (s *Service) process(ctx context.Context, lines []cart.Line, form Form) (conf *Confirmation, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logg.Error(ctx, "checkout.panic", fmt.Errorf("panic: %v", r))
			conf = nil
			err = pkgerrors.New(pkgerrors.CodeInternal, "error processing order")
		}
	}()

	if err := pkgcheckout.ValidateLines(lineInputs(lines)); err != nil {
		return nil, err
	}
	totals := pkgcheckout.ComputeTotals(subtotalOf(lines), s.settings.Pricing)

	remote := s.submit(ctx, form, lines, totals)

	at := s.now()
	orderID := ""
	requestNumber := ""
	if remote != nil {
		orderID = strings.TrimSpace(remote.RequestID)
		requestNumber = strings.TrimSpace(remote.RequestNumber)
	}
	if orderID == "" {
		orderID = newLocalOrderID(at)
	}
	ctx = s.logg.WithOrderID(ctx, orderID)
	ctx = s.logg.WithField(ctx, "customer_email", form.Email)

	message := composeMessage(summary{
		business:      s.settings.BusinessName,
		requestNumber: requestNumber,
		form:          form,
		lines:         lines,
		totals:        totals,
		at:            at.In(s.settings.Location),
	})

	s.persist(ctx, buildRecord(orderID, requestNumber, form, lines, totals, at))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"items":             len(lines),
		"total":             totals.Total.String(),
		"remote_registered": remote != nil,
	}), "checkout.completed")

	return &Confirmation{
		OrderID:          orderID,
		RequestNumber:    requestNumber,
		HandoffURL:       handoffURL(s.settings.WhatsAppNumber, message),
		ConfirmationPath: confirmationPath(orderID, requestNumber),
		Message:          message,
		Totals:           totals,
		RemoteRegistered: remote != nil,
	}, nil
}

func (s *Service) submit(ctx context.Context, form Form, lines []cart.Line, totals pkgcheckout.Totals) *ventify.SaleRequestResult {
	// The sale request outlives a shopper who closes the tab.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.RemoteTimeout)
	defer cancel()

	result, err := s.sales.CreateSaleRequest(ctx, buildSaleRequest(form, lines, totals))
	if err != nil {
		outcome := "failed"
		if f := ventify.FailureFrom(err); f != nil && f.Timeout {
			outcome = "timeout"
		}
		s.metrics.IncRemote(outcome)
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"outcome": outcome, "error": err.Error()}), "checkout.remote_failed")
		return nil
	}
	if result == nil {
		s.metrics.IncRemote("failed")
		return nil
	}
	s.metrics.IncRemote("ok")
	s.logg.Info(s.logg.WithField(ctx, "request_number", result.RequestNumber), "checkout.remote_registered")
	return result
}

func (s *Service) persist(ctx context.Context, record orderlog.LocalOrderRecord) {
	if err := s.orders.Append(context.WithoutCancel(ctx), record); err != nil {
		s.metrics.IncPersist("failed")
		s.logg.Error(ctx, "checkout.persist_failed", err)
		return
	}
	s.metrics.IncPersist("ok")
}

func buildSaleRequest(form Form, lines []cart.Line, totals pkgcheckout.Totals) ventify.SaleRequest {
	items := make([]ventify.SaleItem, 0, len(lines))
	for _, line := range lines {
		// The platform matches sale lines by product id, sent as the sku.
		items = append(items, ventify.SaleItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			SKU:         line.Product.ID,
			Quantity:    line.Quantity,
			Price:       ventify.PriceOf(line.Product.Price.InexactFloat64()),
		})
	}
	address := form.ShippingAddress()
	return ventify.SaleRequest{
		CustomerName:  form.FullName,
		CustomerEmail: form.Email,
		CustomerPhone: form.Phone,
		Items:         items,
		ShippingAddress: ventify.ShippingAddress{
			Street:  address.Street,
			City:    address.City,
			State:   address.State,
			ZipCode: address.ZipCode,
			Country: address.Country,
		},
		Subtotal:               totals.Subtotal.InexactFloat64(),
		Shipping:               totals.Shipping.InexactFloat64(),
		Tax:                    totals.Tax.InexactFloat64(),
		Total:                  totals.Total.InexactFloat64(),
		PreferredPaymentMethod: form.PaymentMethod.String(),
		Notes:                  form.Notes,
	}
}

func buildRecord(orderID, requestNumber string, form Form, lines []cart.Line, totals pkgcheckout.Totals, at time.Time) orderlog.LocalOrderRecord {
	items := make([]orderlog.RecordItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, orderlog.RecordItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			Price:       line.Product.Price.InexactFloat64(),
			Total:       line.Subtotal().InexactFloat64(),
		})
	}
	var number *string
	if requestNumber != "" {
		number = &requestNumber
	}
	return orderlog.LocalOrderRecord{
		ID:              orderID,
		RequestNumber:   number,
		CustomerName:    form.FullName,
		CustomerEmail:   form.Email,
		CustomerPhone:   form.Phone,
		Items:           items,
		ShippingAddress: form.ShippingAddress(),
		Subtotal:        totals.Subtotal.InexactFloat64(),
		Shipping:        totals.Shipping.InexactFloat64(),
		Tax:             totals.Tax.InexactFloat64(),
		Total:           totals.Total.InexactFloat64(),
		PaymentMethod:   form.PaymentMethod.String(),
		Notes:           form.Notes,
		CreatedAt:       at.UTC(),
	}
}

func lineInputs(lines []cart.Line) []pkgcheckout.LineInput {
	out := make([]pkgcheckout.LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, pkgcheckout.LineInput{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			Stock:       line.Product.Stock,
			UnitPrice:   line.Product.Price,
		})
	}
	return out
}

func subtotalOf(lines []cart.Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Subtotal())
	}
	return sum
}

const localIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newLocalOrderID returns order_<unix-ms>_<9 base36 chars>.
func newLocalOrderID(at time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = localIDAlphabet[rand.IntN(len(localIDAlphabet))]
	}
	return "order_" + strconv.FormatInt(at.UnixMilli(), 10) + "_" + string(suffix)
}
