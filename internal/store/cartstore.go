package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/storevia/storefront/internal/domain"
	"github.com/storevia/storefront/internal/gateway"
	"github.com/storevia/storefront/internal/localstate"
)

const (
	// acceptedPromoCode is the single promo code the storefront honors.
	// Promo validation is local; no server-side code registry exists.
	acceptedPromoCode = "discount20"
	promoDiscountRate = 0.2

	// How long the "promo applied" banner stays up before auto-clearing.
	defaultPromoBannerTTL = 3 * time.Second

	relatedFetchTimeout = 5 * time.Second
)

var (
	// ErrInvalidPromoCode rejects a promo code that does not match the
	// accepted value. Cart state is untouched.
	ErrInvalidPromoCode = errors.New("invalid promo code")

	// ErrNothingToCheckout means checkout was started on an empty cart.
	ErrNothingToCheckout = errors.New("cart is empty")
)

// CartStore owns the cart line items of exactly one user for the duration
// of their session; the Registry hands each resolved user their own
// instance. Every mutation goes remote first, then the whole list is
// replaced by re-fetching the authoritative server state; there is no
// local/remote diffing. Mutations are serialized through opMu so a slow
// reload cannot be overwritten by a later, faster one.
type CartStore struct {
	gateway   gateway.RemoteCartGateway
	userEmail string
	state     localstate.Store
	log       *logrus.Logger

	promoTTL time.Duration

	opMu sync.Mutex // serializes mutate-remote -> reload sequences
	sfg  singleflight.Group

	mu         sync.Mutex
	loadGen    uint64
	items      []domain.CartLineItem
	related    []domain.Product
	discount   float64
	promoAlive bool
	promoTimer *time.Timer
}

// NewCartStore builds a store owned by userEmail. An empty email means an
// anonymous session: loads read as an empty cart without a remote call.
func NewCartStore(gw gateway.RemoteCartGateway, userEmail string, state localstate.Store, log *logrus.Logger) *CartStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CartStore{
		gateway:   gw,
		userEmail: userEmail,
		state:     state,
		log:       log,
		promoTTL:  defaultPromoBannerTTL,
	}
}

// Load fetches the owner's cart from the remote service and replaces the
// local list wholesale. Selection state comes from the fetched payload
// (default: nothing selected). An anonymous session reads as an empty
// cart; a fetch failure empties the list and returns the error for
// display. Load never panics past this boundary.
func (s *CartStore) Load(ctx context.Context) ([]domain.CartLineItem, error) {
	if s.userEmail == "" {
		s.mu.Lock()
		s.items = nil
		s.mu.Unlock()
		return nil, nil
	}

	// Concurrent loads collapse into one fetch. The fetch is detached
	// from the triggering caller's cancellation so waiters with live
	// contexts are not failed by it.
	v, err, _ := s.sfg.Do(s.userEmail, func() (interface{}, error) {
		return s.gateway.FetchCart(context.WithoutCancel(ctx), s.userEmail)
	})
	if err != nil {
		s.mu.Lock()
		s.items = nil
		s.mu.Unlock()
		s.log.Warnf("load cart for %s: %v", s.userEmail, err)
		return nil, err
	}

	items := v.([]domain.CartLineItem)
	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.items = items
	s.mu.Unlock()

	if categories := distinctCategories(items); len(categories) > 1 {
		// Best-effort; detached from the request so a slow catalog does
		// not hold up the cart.
		go s.refreshRelated(gen, categories, excludedProductIDs(items))
	}

	return s.Items(), nil
}

func (s *CartStore) refreshRelated(gen uint64, categories, excludeIDs []string) {
	ctx, cancel := context.WithTimeout(context.Background(), relatedFetchTimeout)
	defer cancel()

	products, err := s.gateway.FetchRelatedItems(ctx, categories, excludeIDs)
	if err != nil {
		s.log.Debugf("related items fetch: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// A reload may have superseded the load that started this fetch;
	// stale results are dropped rather than installed over fresh state.
	if gen != s.loadGen {
		return
	}
	s.related = products
}

// ToggleSelected flips the selection of exactly one line. Local only.
// Returns false when no line matches.
func (s *CartStore) ToggleSelected(lineID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == lineID {
			s.items[i].Selected = !s.items[i].Selected
			return true
		}
	}
	return false
}

// SetAllSelected sets the selection of every line. Local only.
func (s *CartStore) SetAllSelected(selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].Selected = selected
	}
}

// ChangeQuantity moves a line's quantity by one step. At the [1,10] bounds
// the call is a silent no-op and the remote service is not contacted. The
// raw delta goes over the wire; the server does its own clamping, ours is
// a UI-level guard.
func (s *CartStore) ChangeQuantity(ctx context.Context, lineID string, delta int) error {
	if delta != -1 && delta != 1 {
		return nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	current, found := s.lineQuantity(lineID)
	if !found {
		return nil
	}
	if domain.ClampQuantity(current+delta) == current {
		return nil
	}

	if err := s.gateway.UpdateQuantity(ctx, lineID, delta); err != nil {
		// List stays as it was; the reload that would apply the change
		// never runs.
		s.log.Warnf("update quantity for line %s: %v", lineID, err)
		return err
	}
	_, err := s.Load(ctx)
	return err
}

// RemoveLine deletes one line remotely, knocks the persisted badge count
// down by one and reloads the authoritative cart.
func (s *CartStore) RemoveLine(ctx context.Context, lineID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.removeOne(ctx, lineID); err != nil {
		return err
	}
	_, err := s.Load(ctx)
	return err
}

// RemoveSelected deletes every selected line, one at a time, and reports
// which lines failed. A single reload runs at the end regardless of
// partial failures.
func (s *CartStore) RemoveSelected(ctx context.Context) (failed []string, err error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	var selected []string
	for _, l := range s.items {
		if l.Selected {
			selected = append(selected, l.ID)
		}
	}
	s.mu.Unlock()

	for _, id := range selected {
		if errRemove := s.removeOne(ctx, id); errRemove != nil {
			failed = append(failed, id)
		}
	}

	_, err = s.Load(ctx)
	return failed, err
}

func (s *CartStore) removeOne(ctx context.Context, lineID string) error {
	if err := s.gateway.DeleteLine(ctx, lineID); err != nil {
		s.log.Warnf("delete line %s: %v", lineID, err)
		return err
	}

	// Badge decrement happens on any successful delete, whatever the
	// response body said. Display-only, so a failure is just logged.
	if email := s.userEmail; email != "" {
		if _, err := s.state.DecrementCartCount(ctx, email); err != nil {
			s.log.Warnf("decrement cart count for %s: %v", email, err)
		}
	}
	return nil
}

// Snapshot recomputes the monetary totals from the current selected lines.
// Pure derivation; nothing is cached between calls.
func (s *CartStore) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ComputeSnapshot(s.items, s.discount)
}

// ApplyPromoCode validates a user-supplied code against the accepted
// constant, case-insensitively. On a match the discount locks to 20% of
// the subtotal over the lines selected right now; later selection changes
// do not re-evaluate it. The applied banner clears itself after promoTTL.
func (s *CartStore) ApplyPromoCode(code string) (float64, error) {
	if strings.ToLower(code) != acceptedPromoCode {
		return 0, ErrInvalidPromoCode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.discount = domain.Round2(domain.SelectedSubtotal(s.items) * promoDiscountRate)
	s.promoAlive = true
	if s.promoTimer != nil {
		s.promoTimer.Stop()
	}
	s.promoTimer = time.AfterFunc(s.promoTTL, func() {
		s.mu.Lock()
		s.promoAlive = false
		s.mu.Unlock()
	})
	return s.discount, nil
}

// PromoBannerVisible reports whether the celebratory applied-promo banner
// should still be on screen.
func (s *CartStore) PromoBannerVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promoAlive
}

// Discount is the currently applied promo discount, zero when none.
func (s *CartStore) Discount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discount
}

// BeginCheckout captures the full current line list plus its snapshot into
// local state for the checkout flow to read, and returns the payload. The
// payload is not re-validated against the server at write time.
func (s *CartStore) BeginCheckout(ctx context.Context) (*domain.PendingCheckout, error) {
	s.mu.Lock()
	items := make([]domain.CartLineItem, len(s.items))
	copy(items, s.items)
	snapshot := domain.ComputeSnapshot(s.items, s.discount)
	s.mu.Unlock()

	email := s.userEmail

	if len(items) == 0 {
		return nil, ErrNothingToCheckout
	}

	payload := &domain.PendingCheckout{
		ID:         newCheckoutID(),
		UserEmail:  email,
		Items:      items,
		Snapshot:   snapshot,
		CapturedAt: time.Now(),
	}
	if err := s.state.SavePendingCheckout(ctx, payload); err != nil {
		s.log.Warnf("save pending checkout for %s: %v", email, err)
		return nil, err
	}
	return payload, nil
}

// CartCount reads the persisted header-badge count. Best-effort: errors
// read as zero.
func (s *CartStore) CartCount(ctx context.Context) int {
	email := s.userEmail
	if email == "" {
		return 0
	}
	count, err := s.state.CartCount(ctx, email)
	if err != nil {
		s.log.Debugf("read cart count for %s: %v", email, err)
		return 0
	}
	return count
}

// Items returns a copy of the current line list.
func (s *CartStore) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.CartLineItem, len(s.items))
	copy(items, s.items)
	return items
}

// Related returns the last successfully fetched related products.
func (s *CartStore) Related() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	related := make([]domain.Product, len(s.related))
	copy(related, s.related)
	return related
}

func (s *CartStore) lineQuantity(lineID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.items {
		if l.ID == lineID {
			return l.Quantity, true
		}
	}
	return 0, false
}

func newCheckoutID() string {
	return uuid.NewString()
}

func distinctCategories(items []domain.CartLineItem) []string {
	seen := make(map[string]struct{}, len(items))
	var categories []string
	for _, l := range items {
		if l.Category == "" {
			continue
		}
		if _, ok := seen[l.Category]; ok {
			continue
		}
		seen[l.Category] = struct{}{}
		categories = append(categories, l.Category)
	}
	return categories
}

func excludedProductIDs(items []domain.CartLineItem) []string {
	ids := make([]string, 0, len(items))
	for _, l := range items {
		ids = append(ids, strconv.FormatInt(l.ProductID, 10))
	}
	return ids
}
