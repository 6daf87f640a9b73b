package cart

import (
	"errors"
	"sync"
	"time"

	"github.com/arcay3dlabs/storefront/internal/products"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrOutOfStock is wrapped by AddItem when the product's stock is zero.
	ErrOutOfStock = errors.New("out of stock")
	// ErrCheckoutInProgress is returned when a second checkout starts on the same cart.
	ErrCheckoutInProgress = pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
)

// Line is one (product, quantity) pair. Product is the snapshot taken on the
// last add.
type Line struct {
	Product  products.Product `json:"product"`
	Quantity int              `json:"quantity"`
}

// Subtotal is unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the set of line items for one browsing session. Every quantity
// stays within [1, stock] after any mutation.
type Cart struct {
	mu          sync.Mutex
	order       []string
	lines       map[string]*Line
	checkingOut bool
	touched     time.Time
	now         func() time.Time
}

func New() *Cart {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Cart {
	return &Cart{lines: map[string]*Line{}, now: now, touched: now()}
}

// AddItem inserts the product or increments its quantity. Quantities below 1
// count as 1 and the result is clamped to the product's stock.
func (c *Cart) AddItem(product products.Product, quantity int) error {
	if product.Stock <= 0 {
		return pkgerrors.Wrap(pkgerrors.CodeOutOfStock, ErrOutOfStock, "product is out of stock").
			WithDetails(map[string]any{"productId": product.ID})
	}
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if line, ok := c.lines[product.ID]; ok {
		line.Product = product
		line.Quantity = clamp(line.Quantity+quantity, product.Stock)
		return nil
	}
	c.lines[product.ID] = &Line{Product: product, Quantity: clamp(quantity, product.Stock)}
	c.order = append(c.order, product.ID)
	return nil
}

// RemoveItem deletes the line when present.
func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.remove(productID)
}

// UpdateQuantity sets the quantity of an existing line. Zero or less removes it.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	line, ok := c.lines[productID]
	if !ok {
		return
	}
	if quantity <= 0 {
		c.remove(productID)
		return
	}
	line.Quantity = clamp(quantity, line.Product.Stock)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.order = nil
	c.lines = map[string]*Line{}
}

// RemoveCheckedOut takes the checked-out quantities off the cart. Lines added
// or raised after the snapshot keep whatever was not ordered.
func (c *Cart) RemoveCheckedOut(ordered []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	for _, o := range ordered {
		line, ok := c.lines[o.Product.ID]
		if !ok {
			continue
		}
		if line.Quantity <= o.Quantity {
			c.remove(o.Product.ID)
			continue
		}
		line.Quantity -= o.Quantity
	}
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		line := *c.lines[id]
		line.Product.Images = append([]string(nil), line.Product.Images...)
		out = append(out, line)
	}
	return out
}

func (c *Cart) TotalItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// TryBeginCheckout marks the cart as checking out. It fails with
// ErrCheckoutInProgress when another checkout holds the cart.
func (c *Cart) TryBeginCheckout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checkingOut {
		return ErrCheckoutInProgress
	}
	c.checkingOut = true
	return nil
}

func (c *Cart) EndCheckout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkingOut = false
}

func (c *Cart) idleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched, c.checkingOut
}

func (c *Cart) markUsed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
}

func (c *Cart) touch() {
	c.touched = c.now()
}

func (c *Cart) remove(productID string) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func clamp(quantity, stock int) int {
	if quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}
