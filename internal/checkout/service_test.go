package checkout

import (
	"context"
	"errors"
	"io"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/arcay3dlabs/storefront/internal/cart"
	"github.com/arcay3dlabs/storefront/internal/orderlog"
	"github.com/arcay3dlabs/storefront/internal/products"
	"github.com/arcay3dlabs/storefront/internal/ventify"
	pkgcheckout "github.com/arcay3dlabs/storefront/pkg/checkout"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/arcay3dlabs/storefront/pkg/logger"
	"github.com/arcay3dlabs/storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSales struct {
	mu     sync.Mutex
	calls  int
	last   ventify.SaleRequest
	ctxErr error
	result *ventify.SaleRequestResult
	err    error
	panic  bool
	// inFlight runs while the sale request is outstanding.
	inFlight func()
}

func (s *stubSales) CreateSaleRequest(ctx context.Context, req ventify.SaleRequest) (*ventify.SaleRequestResult, error) {
	if s.inFlight != nil {
		s.inFlight()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = req
	s.ctxErr = ctx.Err()
	if s.panic {
		panic("boom")
	}
	return s.result, s.err
}

type ctxRecordingOrders struct {
	ctxErr  error
	records []orderlog.LocalOrderRecord
}

func (o *ctxRecordingOrders) Append(ctx context.Context, record orderlog.LocalOrderRecord) error {
	o.ctxErr = ctx.Err()
	if o.ctxErr != nil {
		return o.ctxErr
	}
	o.records = append(o.records, record)
	return nil
}

type failingOrders struct{}

func (failingOrders) Append(context.Context, orderlog.LocalOrderRecord) error {
	return pkgerrors.New(pkgerrors.CodePersistence, "failed to persist record")
}

type fixture struct {
	svc     *Service
	sales   *stubSales
	log     *orderlog.Log
	reg     *prometheus.Registry
	cart    *cart.Cart
	metrics *metrics.CheckoutMetrics
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newFixture(t *testing.T, sales *stubSales) *fixture {
	t.Helper()
	logg := testLogger()
	log, err := orderlog.New(orderlog.NewMemoryKV(), orderlog.DefaultKey, 0, logg)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.NewCheckoutMetrics(reg)
	lima, err := time.LoadLocation("America/Lima")
	require.NoError(t, err)

	svc, err := NewService(sales, log, Settings{
		Pricing:        pkgcheckout.DefaultPricing(),
		RemoteTimeout:  time.Second,
		WhatsAppNumber: "51917455538",
		BusinessName:   "Arcay3Dlabs",
		Location:       lima,
	}, logg, m)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 20, 30, 0, 0, time.UTC) }

	c := cart.New()
	return &fixture{svc: svc, sales: sales, log: log, reg: reg, cart: c, metrics: m}
}

func widgetCart(t *testing.T, c *cart.Cart) {
	t.Helper()
	require.NoError(t, c.AddItem(products.Product{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 5}, 2))
}

func validForm() Form {
	return Form{
		FullName: " Ana Torres ",
		Email:    "ana@example.com",
		Phone:    "999111222",
		Address:  "Av. Sol 123",
		City:     "Lima",
		State:    "Lima",
		ZipCode:  "15001",
	}
}

func TestCheckoutEmptyCartMakesNoCall(t *testing.T) {
	f := newFixture(t, &stubSales{})

	_, err := f.svc.Checkout(context.Background(), f.cart, validForm())
	require.Equal(t, pkgerrors.CodeEmptyCart, pkgerrors.CodeOf(err))
	require.Zero(t, f.sales.calls)
}

func TestCheckoutInvalidEmailMakesNoCall(t *testing.T) {
	f := newFixture(t, &stubSales{})
	widgetCart(t, f.cart)

	form := validForm()
	form.Email = "not-an-email"
	_, err := f.svc.Checkout(context.Background(), f.cart, form)

	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "Email inválido", details["email"])
	assert.Len(t, details, 1)
	require.Zero(t, f.sales.calls)
	require.False(t, f.cart.IsEmpty())
}

func TestCheckoutRemoteTimeoutStillCompletes(t *testing.T) {
	timeout := &ventify.Failure{Op: "create_sale_request", Message: "request timed out", Timeout: true}
	f := newFixture(t, &stubSales{err: pkgerrors.Wrap(timeout.Code(), timeout, "ventify create_sale_request failed")})
	widgetCart(t, f.cart)

	conf, err := f.svc.Checkout(context.Background(), f.cart, validForm())
	require.NoError(t, err)

	assert.True(t, conf.Totals.Total.Equal(decimal.RequireFromString("25.99")), "total %s", conf.Totals.Total)
	assert.Regexp(t, regexp.MustCompile(`^order_\d+_[a-z0-9]+$`), conf.OrderID)
	assert.Empty(t, conf.RequestNumber)
	assert.False(t, conf.RemoteRegistered)
	assert.True(t, f.cart.IsEmpty())

	records, err := f.log.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, conf.OrderID, records[0].ID)
	assert.Nil(t, records[0].RequestNumber)
	assert.Equal(t, 25.99, records[0].Total)

	u, err := url.Parse(conf.ConfirmationPath)
	require.NoError(t, err)
	assert.Equal(t, "/pedido-confirmado", u.Path)
	assert.Equal(t, conf.OrderID, u.Query().Get("orderId"))
	assert.Empty(t, u.Query().Get("requestNumber"))

	assert.Equal(t, float64(1), counterValue(t, f.reg, "checkout_remote_submissions_total", "timeout"))
}

func TestCheckoutRemoteSuccessUsesRemoteIDs(t *testing.T) {
	f := newFixture(t, &stubSales{result: &ventify.SaleRequestResult{RequestID: "r1", RequestNumber: "REQ-001"}})
	widgetCart(t, f.cart)

	conf, err := f.svc.Checkout(context.Background(), f.cart, validForm())
	require.NoError(t, err)
	assert.Equal(t, "r1", conf.OrderID)
	assert.Equal(t, "REQ-001", conf.RequestNumber)
	assert.Contains(t, conf.ConfirmationPath, "requestNumber=REQ-001")
	assert.Contains(t, conf.Message, "Solicitud: REQ-001")

	records, err := f.log.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r1", records[0].ID)
	require.NotNil(t, records[0].RequestNumber)
	assert.Equal(t, "REQ-001", *records[0].RequestNumber)

	sent := f.sales.last
	assert.Equal(t, "Ana Torres", sent.CustomerName)
	require.Len(t, sent.Items, 1)
	assert.Equal(t, "p1", sent.Items[0].SKU)
	assert.Equal(t, 10.0, *sent.Items[0].Price)
	assert.Equal(t, "Perú", sent.ShippingAddress.Country)
	assert.Equal(t, "transferencia", sent.PreferredPaymentMethod)
	assert.Equal(t, 5.99, sent.Shipping)
	require.NoError(t, sent.Validate())
}

func TestCheckoutPersistFailureIsSwallowed(t *testing.T) {
	sales := &stubSales{result: &ventify.SaleRequestResult{RequestID: "r2"}}
	f := newFixture(t, sales)
	svc, err := NewService(sales, failingOrders{}, f.svc.settings, testLogger(), f.metrics)
	require.NoError(t, err)
	widgetCart(t, f.cart)

	conf, err := svc.Checkout(context.Background(), f.cart, validForm())
	require.NoError(t, err)
	assert.Equal(t, "r2", conf.OrderID)
	assert.True(t, f.cart.IsEmpty())
	assert.Equal(t, float64(1), counterValue(t, f.reg, "checkout_local_records_total", "failed"))
}

func TestCheckoutPanicLeavesCartIntact(t *testing.T) {
	f := newFixture(t, &stubSales{panic: true})
	widgetCart(t, f.cart)

	_, err := f.svc.Checkout(context.Background(), f.cart, validForm())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInternal, typed.Code())
	assert.Equal(t, "error processing order", typed.Message())
	assert.Equal(t, 2, f.cart.TotalItemCount())

	require.NoError(t, f.cart.TryBeginCheckout(), "guard must be released after a failed checkout")
}

func TestCheckoutRejectsConcurrentCheckout(t *testing.T) {
	f := newFixture(t, &stubSales{})
	widgetCart(t, f.cart)
	require.NoError(t, f.cart.TryBeginCheckout())

	_, err := f.svc.Checkout(context.Background(), f.cart, validForm())
	assert.True(t, errors.Is(err, cart.ErrCheckoutInProgress))
	assert.Zero(t, f.sales.calls)
}

func TestComposeMessageFormat(t *testing.T) {
	form, err := ValidateForm(Form{
		FullName:      "Ana",
		Email:         "ana@example.com",
		Phone:         "999",
		Address:       "Av. Sol 123",
		City:          "Lima",
		State:         "Lima",
		ZipCode:       "15001",
		PaymentMethod: "contraentrega",
		Notes:         "Llamar antes",
	})
	require.NoError(t, err)

	line := cart.Line{Product: products.Product{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("30")}, Quantity: 2}
	lima, _ := time.LoadLocation("America/Lima")
	msg := composeMessage(summary{
		business: "Arcay3Dlabs",
		form:     form,
		lines:    []cart.Line{line},
		totals:   pkgcheckout.ComputeTotals(line.Subtotal(), pkgcheckout.DefaultPricing()),
		at:       time.Date(2026, 3, 1, 20, 30, 5, 0, time.UTC).In(lima),
	})

	want := strings.Join([]string{
		"*\U0001F6D2 NUEVO PEDIDO - Arcay3Dlabs*",
		"",
		"*\U0001F464 Cliente:*",
		"Nombre: Ana",
		"Email: ana@example.com",
		"Teléfono: 999",
		"",
		"*\U0001F4E6 Productos:*",
		"1. Widget",
		"   Cantidad: 2",
		"   Precio: S/ 30.00 c/u",
		"   Subtotal: S/ 60.00",
		"",
		"*\U0001F4B0 Resumen de Costos:*",
		"Subtotal: S/ 60.00",
		"Envío: GRATIS \U0001F389",
		"*Total: S/ 60.00*",
		"",
		"*\U0001F4CD Dirección de Envío:*",
		"Av. Sol 123",
		"Lima, Lima",
		"CP: 15001",
		"Perú",
		"",
		"*\U0001F4B3 Método de Pago:*",
		"\U0001F4B5 Pago Contra Entrega",
		"",
		"*\U0001F4DD Notas Adicionales:*",
		"Llamar antes",
		"",
		"_Generado desde Arcay3Dlabs - 1/3/2026, 15:30:05_",
	}, "\n")
	assert.Equal(t, want, msg)
}

func TestHandoffURLEncoding(t *testing.T) {
	link := handoffURL("51917455538", "Hola & adiós 50%")
	assert.Equal(t, "https://api.whatsapp.com/send?phone=51917455538&text=Hola%20%26%20adi%C3%B3s%2050%25", link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Hola & adiós 50%", u.Query().Get("text"))
}

func TestValidateFormDefaultsAndRequired(t *testing.T) {
	form, err := ValidateForm(validForm())
	require.NoError(t, err)
	assert.Equal(t, "Ana Torres", form.FullName)
	assert.Equal(t, "Perú", form.Country)
	assert.Equal(t, "transferencia", form.PaymentMethod.String())

	_, err = ValidateForm(Form{PaymentMethod: "bitcoin"})
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	for _, field := range []string{"fullName", "email", "phone", "address", "city", "state", "zipCode", "paymentMethod"} {
		assert.Contains(t, details, field)
	}
	assert.Equal(t, "El email es requerido", details["email"])
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}

func TestCheckoutKeepsItemsAddedWhileInFlight(t *testing.T) {
	sales := &stubSales{}
	f := newFixture(t, sales)
	widgetCart(t, f.cart)
	gadget := products.Product{ID: "p2", Name: "Gadget", Price: decimal.RequireFromString("4.00"), Stock: 3}
	sales.inFlight = func() {
		require.NoError(t, f.cart.AddItem(gadget, 1))
	}

	conf, err := f.svc.Checkout(context.Background(), f.cart, validForm())
	require.NoError(t, err)

	require.Len(t, sales.last.Items, 1)
	assert.Equal(t, "p1", sales.last.Items[0].ProductID)
	assert.True(t, conf.Totals.Subtotal.Equal(decimal.NewFromInt(20)), "subtotal %s", conf.Totals.Subtotal)

	lines := f.cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].Product.ID)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestCheckoutOutlivesCancelledRequest(t *testing.T) {
	sales := &stubSales{}
	f := newFixture(t, sales)
	orders := &ctxRecordingOrders{}
	svc, err := NewService(sales, orders, f.svc.settings, testLogger(), f.metrics)
	require.NoError(t, err)
	widgetCart(t, f.cart)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Checkout(ctx, f.cart, validForm())
	require.NoError(t, err)

	assert.NoError(t, sales.ctxErr)
	assert.NoError(t, orders.ctxErr)
	assert.Len(t, orders.records, 1)
	assert.True(t, f.cart.IsEmpty())
}

func TestSaleRequestSendsProductIDAsSKU(t *testing.T) {
	req := buildSaleRequest(validForm(), []cart.Line{{
		Product:  products.Product{ID: "p9", SKU: "VENTIFY-SKU", Name: "Jarrón", Price: decimal.RequireFromString("12.50"), Stock: 2},
		Quantity: 1,
	}}, pkgcheckout.ComputeTotals(decimal.RequireFromString("12.50"), pkgcheckout.DefaultPricing()))

	require.Len(t, req.Items, 1)
	assert.Equal(t, "p9", req.Items[0].SKU)
}
