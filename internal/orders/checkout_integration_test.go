package orders

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/umdsoft/bunyodoptom-backend/internal/postgres"
)

// Integration coverage for the checkout transaction. Runs only when
// TEST_POSTGRES_DSN points at a disposable database.

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users(uid, phone, password) VALUES ($1, $2, 'x')
		RETURNING id`, uuid.NewString(), "t-"+uuid.NewString()).Scan(&id)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, price string, stock int, status string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO products(name, price, stock_qty, status)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		"test product "+uuid.NewString(), price, stock, status).Scan(&id)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}

func stockOf(t *testing.T, pool *pgxpool.Pool, productID int64) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(),
		`SELECT stock_qty FROM products WHERE id=$1`, productID).Scan(&n); err != nil {
		t.Fatalf("stock: %v", err)
	}
	return n
}

func TestCheckoutScenario(t *testing.T) {
	pool := testPool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	userID := seedUser(t, pool)
	productID := seedProduct(t, pool, "10.00", 5, productStatusActive)

	o, err := repo.Checkout(ctx, CheckoutInput{
		UserID: userID,
		Items:  []ItemInput{{ProductID: productID, Qty: 3}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if got := o.TotalAmount.StringFixed(2); got != "30.00" {
		t.Errorf("total = %s, want 30.00", got)
	}
	if o.Status != StatusCreated || o.PaymentStatus != PaymentPending {
		t.Errorf("status = %s/%s, want created/pending", o.Status, o.PaymentStatus)
	}
	if got := stockOf(t, pool, productID); got != 2 {
		t.Errorf("stock = %d, want 2", got)
	}

	items, err := repo.Items(ctx, o.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].Qty != 3 || items[0].UnitPrice.StringFixed(2) != "10.00" {
		t.Errorf("unexpected items: %+v", items)
	}

	// sum(qty x unit_price) == total
	sum := items[0].UnitPrice.Mul(decimal.NewFromInt(int64(items[0].Qty)))
	if !sum.Round(2).Equal(o.TotalAmount) {
		t.Errorf("items sum %s != total %s", sum, o.TotalAmount)
	}

	ledger, err := repo.Ledger(ctx, o.ID)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if len(ledger) != 1 || ledger[0].Delta != -3 || ledger[0].Reason != LedgerReasonOrder {
		t.Errorf("unexpected ledger: %+v", ledger)
	}
	if ledger[0].OrderID == nil || *ledger[0].OrderID != o.ID {
		t.Errorf("ledger row not linked to order %d: %+v", o.ID, ledger[0])
	}
}

func TestCheckoutIdempotentRetry(t *testing.T) {
	pool := testPool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	userID := seedUser(t, pool)
	productID := seedProduct(t, pool, "10.00", 5, productStatusActive)
	key := uuid.NewString()

	in := CheckoutInput{
		UserID:         userID,
		IdempotencyKey: &key,
		Items:          []ItemInput{{ProductID: productID, Qty: 3}},
	}
	first, err := repo.Checkout(ctx, in)
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	second, err := repo.Checkout(ctx, in)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("retry created a new order: %d vs %d", first.ID, second.ID)
	}
	if got := stockOf(t, pool, productID); got != 2 {
		t.Errorf("stock = %d, want 2 (retry must not decrement again)", got)
	}
}

func TestCheckoutAllOrNothing(t *testing.T) {
	pool := testPool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	userID := seedUser(t, pool)
	okProduct := seedProduct(t, pool, "10.00", 5, productStatusActive)
	emptyProduct := seedProduct(t, pool, "7.50", 1, productStatusActive)

	_, err := repo.Checkout(ctx, CheckoutInput{
		UserID: userID,
		Items: []ItemInput{
			{ProductID: okProduct, Qty: 3},
			{ProductID: emptyProduct, Qty: 2},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}
	if got := stockOf(t, pool, okProduct); got != 5 {
		t.Errorf("first product stock = %d, want 5 (rollback)", got)
	}
	if got := stockOf(t, pool, emptyProduct); got != 1 {
		t.Errorf("second product stock = %d, want 1", got)
	}
}

// Two lines for the same product are applied in order against the remaining
// stock: 3 then 3 out of 5 fails the second line, and everything rolls back.
func TestCheckoutDuplicateLines(t *testing.T) {
	pool := testPool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	userID := seedUser(t, pool)
	productID := seedProduct(t, pool, "10.00", 5, productStatusActive)

	_, err := repo.Checkout(ctx, CheckoutInput{
		UserID: userID,
		Items: []ItemInput{
			{ProductID: productID, Qty: 3},
			{ProductID: productID, Qty: 3},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}
	if got := stockOf(t, pool, productID); got != 5 {
		t.Errorf("stock = %d, want 5 (rollback)", got)
	}

	// both lines fitting is fine
	o, err := repo.Checkout(ctx, CheckoutInput{
		UserID: userID,
		Items: []ItemInput{
			{ProductID: productID, Qty: 2},
			{ProductID: productID, Qty: 2},
		},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if got := o.TotalAmount.StringFixed(2); got != "40.00" {
		t.Errorf("total = %s, want 40.00", got)
	}
	if got := stockOf(t, pool, productID); got != 1 {
		t.Errorf("stock = %d, want 1", got)
	}
}

func TestCheckoutInactiveProduct(t *testing.T) {
	pool := testPool(t)
	repo := &Repo{DB: pool}

	userID := seedUser(t, pool)
	productID := seedProduct(t, pool, "10.00", 5, "archived")

	_, err := repo.Checkout(context.Background(), CheckoutInput{
		UserID: userID,
		Items:  []ItemInput{{ProductID: productID, Qty: 1}},
	})
	if !errors.Is(err, ErrProductInactive) {
		t.Fatalf("got %v, want ErrProductInactive", err)
	}
}

func TestCheckoutUnknownProduct(t *testing.T) {
	pool := testPool(t)
	repo := &Repo{DB: pool}
	userID := seedUser(t, pool)

	_, err := repo.Checkout(context.Background(), CheckoutInput{
		UserID: userID,
		Items:  []ItemInput{{ProductID: 1 << 60, Qty: 1}},
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("got %v, want ErrProductNotFound", err)
	}
}

// Two checkouts racing for the same 5 units, 3 each: exactly one wins and
// stock never goes negative.
func TestCheckoutConcurrentRace(t *testing.T) {
	pool := testPool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	userID := seedUser(t, pool)
	productID := seedProduct(t, pool, "10.00", 5, productStatusActive)

	const racers = 2
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Checkout(ctx, CheckoutInput{
				UserID: userID,
				Items:  []ItemInput{{ProductID: productID, Qty: 3}},
			})
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrStockRace):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("wins=%d losses=%d, want exactly one of each", wins, losses)
	}
	if got := stockOf(t, pool, productID); got != 2 {
		t.Errorf("stock = %d, want 2", got)
	}
}

func TestCancelGuard(t *testing.T) {
	pool := testPool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	userID := seedUser(t, pool)
	productID := seedProduct(t, pool, "10.00", 5, productStatusActive)

	o, err := repo.Checkout(ctx, CheckoutInput{
		UserID: userID,
		Items:  []ItemInput{{ProductID: productID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := repo.UpdateStatus(ctx, o.ID, StatusShipping); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if _, err := repo.Cancel(ctx, o.ID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("cancel of shipping order: got %v, want ErrInvalidStateTransition", err)
	}
	cur, err := repo.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cur.Status != StatusShipping {
		t.Errorf("status = %s, want shipping (unchanged)", cur.Status)
	}

	// a fresh order in created cancels fine
	o2, err := repo.Checkout(ctx, CheckoutInput{
		UserID: userID,
		Items:  []ItemInput{{ProductID: productID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	cancelled, err := repo.Cancel(ctx, o2.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
}

func TestPaymentCallbackForcesOrder(t *testing.T) {
	pool := testPool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	userID := seedUser(t, pool)
	productID := seedProduct(t, pool, "25.00", 10, productStatusActive)

	o, err := repo.Checkout(ctx, CheckoutInput{
		UserID: userID,
		Items:  []ItemInput{{ProductID: productID, Qty: 2}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	pay, err := repo.CreatePayment(ctx, o.ID, "mockpay", o.TotalAmount)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if pay.Status != PaymentStatePending {
		t.Fatalf("payment status = %s, want pending", pay.Status)
	}

	if _, err := repo.ApplyCallback(ctx, pay.ID, PaymentStateSucceeded, "mockpay", "ref_1"); err != nil {
		t.Fatalf("callback: %v", err)
	}
	cur, err := repo.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cur.PaymentStatus != PaymentPaid || cur.Status != StatusShipping {
		t.Errorf("order = %s/%s, want paid/shipping", cur.PaymentStatus, cur.Status)
	}
}
