package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shinyyama/goods-backend/internal/clock"
	"github.com/shinyyama/goods-backend/internal/logger"
	"github.com/shinyyama/goods-backend/internal/metrics"
	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxOrderItems      = 50
	maxCustomTextLen   = 500
	maxDesignFileBytes = 2 << 20
	basisPoints        = 10000
)

// DesignFileInput carries an uploaded design either inline or by URL, never both.
type DesignFileInput struct {
	Name        string
	ContentType string
	Data        []byte
	URL         string
}

type OrderItemInput struct {
	ProductID  uint64
	PrintType  string
	Size       string
	Quantity   int
	CustomText string
	DesignFile *DesignFileInput
}

type CreateOrderInput struct {
	UserUID     string
	Items       []OrderItemInput
	Shipping    model.ShippingSnapshot
	Discount    int64
	ShippingFee int64
	PointsUsed  int64
}

// PaymentResult is returned by CompletePayment. On ErrAlreadyCompleted it still carries
// the stored outcome so an identical retry can be answered without side effects.
type PaymentResult struct {
	OrderID          uint64
	PointsEarned     int64
	PaymentReference string
	AlreadyCompleted bool
}

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error)
	CompletePayment(ctx context.Context, orderID uint64, uid, paymentRef string, amount int64) (*PaymentResult, error)
	Cancel(ctx context.Context, orderID uint64, uid string) (*model.Order, error)
	AdminCancel(ctx context.Context, orderID uint64) (*model.Order, error)
	Get(ctx context.Context, orderID uint64, uid string, admin bool) (*model.Order, error)
	ListByUser(ctx context.Context, uid string, limit, offset int) ([]model.Order, int64, error)
}

type OrderParams struct {
	DB       *gorm.DB
	Orders   repository.OrderRepository
	Products repository.ProductRepository
	Tiers    repository.PriceTierRepository
	Ledger   *Ledger
	Node     *snowflake.Node
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	// EarnRateBP is the share of the paid amount credited as points, in basis points.
	EarnRateBP int64
}

type orderService struct {
	db         *gorm.DB
	orders     repository.OrderRepository
	products   repository.ProductRepository
	tiers      repository.PriceTierRepository
	ledger     *Ledger
	node       *snowflake.Node
	clock      clock.Clock
	metrics    *metrics.Metrics
	earnRateBP int64
}

func NewOrderService(p OrderParams) OrderService {
	clk := p.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &orderService{
		db:         p.DB,
		orders:     p.Orders,
		products:   p.Products,
		tiers:      p.Tiers,
		ledger:     p.Ledger,
		node:       p.Node,
		clock:      clk,
		metrics:    p.Metrics,
		earnRateBP: p.EarnRateBP,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderNo:          s.nextOrderNo(),
		UserUID:          in.UserUID,
		Status:           model.OrderStatusPending,
		Discount:         in.Discount,
		ShippingFee:      in.ShippingFee,
		PointsUsed:       in.PointsUsed,
		ShippingSnapshot: datatypes.NewJSONType(in.Shipping),
	}

	if in.PointsUsed > 0 {
		unlock := s.ledger.Lock(in.UserUID)
		defer unlock()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		tiers := s.tiers.WithTx(tx)

		var subtotal int64
		items := make([]model.OrderItem, 0, len(in.Items))
		for i, it := range in.Items {
			p, err := activeProduct(ctx, products, it.ProductID)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			q, err := quote(ctx, tiers, it.ProductID, it.PrintType, it.Size, it.Quantity)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			subtotal += q.LineTotal
			item := model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    q.Quantity,
				UnitPrice:   q.UnitPrice,
				LineTotal:   q.LineTotal,
				PrintType:   q.PrintType,
				Size:        q.Size,
				CustomText:  strings.TrimSpace(it.CustomText),
			}
			if f := it.DesignFile; f != nil {
				item.DesignFileName = f.Name
				item.DesignFileType = f.ContentType
				item.DesignFileData = f.Data
				item.DesignFileURL = f.URL
			}
			items = append(items, item)
		}

		order.Subtotal = subtotal
		order.FinalAmount = subtotal + in.ShippingFee - in.Discount - in.PointsUsed
		if order.FinalAmount < 0 {
			return invalid("final amount would be negative (%d)", order.FinalAmount)
		}
		order.Items = items
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		if in.PointsUsed > 0 {
			desc := "points used for order " + order.OrderNo
			if _, err := s.ledger.Append(ctx, tx, in.UserUID, model.LedgerSpend, -in.PointsUsed, desc, &order.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	s.metrics.OrderCreated()
	logger.FromContext(ctx).Info("order created",
		zap.Uint64("order_id", order.ID),
		zap.String("order_no", order.OrderNo),
		zap.Int64("final_amount", order.FinalAmount),
	)
	return order, nil
}

func validateCreate(in *CreateOrderInput) error {
	in.UserUID = strings.TrimSpace(in.UserUID)
	if in.UserUID == "" {
		return invalid("user is required")
	}
	if len(in.Items) == 0 {
		return invalid("at least one item is required")
	}
	if len(in.Items) > maxOrderItems {
		return invalid("at most %d items per order", maxOrderItems)
	}
	if !in.Shipping.Complete() {
		return invalid("shipping snapshot is incomplete")
	}
	if in.Discount < 0 || in.ShippingFee < 0 || in.PointsUsed < 0 {
		return invalid("discount, shippingFee and pointsUsed must not be negative")
	}
	for i, it := range in.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("item %d: %w", i, ErrInvalidQuantity)
		}
		if len(it.CustomText) > maxCustomTextLen {
			return invalid("item %d: custom text too long", i)
		}
		if err := validateDesignFile(it.DesignFile); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func validateDesignFile(f *DesignFileInput) error {
	if f == nil {
		return nil
	}
	f.Name = strings.TrimSpace(f.Name)
	f.URL = strings.TrimSpace(f.URL)
	hasData := len(f.Data) > 0
	hasURL := f.URL != ""
	switch {
	case hasData && hasURL:
		return invalid("design file must be inline data or a URL, not both")
	case !hasData && !hasURL:
		return invalid("design file has neither data nor URL")
	case hasData && len(f.Data) > maxDesignFileBytes:
		return invalid("design file exceeds %d bytes", maxDesignFileBytes)
	case hasURL && !strings.HasPrefix(f.URL, "https://") && !strings.HasPrefix(f.URL, "http://"):
		return invalid("design file URL must be http(s)")
	}
	if f.Name == "" {
		return invalid("design file name is required")
	}
	return nil
}

func (s *orderService) nextOrderNo() string {
	return "GD" + strings.ToUpper(s.node.Generate().Base36())
}

// CompletePayment moves a PENDING order to COMPLETED and credits the earned points in the
// same transaction. The order row stays locked until commit.
func (s *orderService) CompletePayment(ctx context.Context, orderID uint64, uid, paymentRef string, amount int64) (*PaymentResult, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return nil, invalid("paymentReference is required")
	}
	unlock := s.ledger.Lock(uid)
	defer unlock()

	res := &PaymentResult{OrderID: orderID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return readError(err)
		}
		if o.UserUID != uid {
			return ErrNotFound
		}
		switch o.Status {
		case model.OrderStatusCompleted:
			res.PointsEarned = o.PointsEarned
			res.PaymentReference = o.PaymentReference
			res.AlreadyCompleted = true
			return ErrAlreadyCompleted
		case model.OrderStatusCancelled:
			return ErrOrderNotPending
		}
		if amount != o.FinalAmount {
			return fmt.Errorf("%w: expected %d, got %d", ErrAmountMismatch, o.FinalAmount, amount)
		}

		earned := amount * s.earnRateBP / basisPoints
		n, err := orders.MarkCompletedIfPending(ctx, o.ID, paymentRef, earned, s.clock.Now())
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrOrderNotPending
		}
		if earned > 0 {
			desc := "points earned for order " + o.OrderNo
			if _, err := s.ledger.Append(ctx, tx, uid, model.LedgerEarn, earned, desc, &o.ID); err != nil {
				return err
			}
		}
		res.PointsEarned = earned
		res.PaymentReference = paymentRef
		return nil
	})

	log := logger.FromContext(ctx).With(zap.Uint64("order_id", orderID))
	switch {
	case err == nil:
		s.metrics.Payment("completed")
		log.Info("payment completed", zap.Int64("points_earned", res.PointsEarned))
		return res, nil
	case errors.Is(err, ErrAlreadyCompleted):
		s.metrics.Payment("already_completed")
		return res, err
	case errors.Is(err, ErrAmountMismatch):
		s.metrics.Payment("amount_mismatch")
		log.Warn("payment amount mismatch", zap.Error(err))
		return nil, err
	default:
		s.metrics.Payment("rejected")
		return nil, txError(err)
	}
}

func (s *orderService) Cancel(ctx context.Context, orderID uint64, uid string) (*model.Order, error) {
	return s.cancel(ctx, orderID, uid, false)
}

func (s *orderService) AdminCancel(ctx context.Context, orderID uint64) (*model.Order, error) {
	return s.cancel(ctx, orderID, "", true)
}

// cancel returns any points used on the order with an ADJUST entry.
func (s *orderService) cancel(ctx context.Context, orderID uint64, uid string, admin bool) (*model.Order, error) {
	current, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, readError(err)
	}
	if !admin && current.UserUID != uid {
		return nil, ErrNotFound
	}

	unlock := s.ledger.Lock(current.UserUID)
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return readError(err)
		}
		if o.Status != model.OrderStatusPending {
			return ErrOrderNotPending
		}
		n, err := orders.MarkCancelledIfPending(ctx, o.ID, s.clock.Now())
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrOrderNotPending
		}
		if o.PointsUsed > 0 {
			desc := "points returned for cancelled order " + o.OrderNo
			if _, err := s.ledger.Append(ctx, tx, o.UserUID, model.LedgerAdjust, o.PointsUsed, desc, &o.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	logger.FromContext(ctx).Info("order cancelled", zap.Uint64("order_id", orderID), zap.Bool("admin", admin))
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, readError(err)
	}
	return o, nil
}

// Get hides orders of other users behind ErrNotFound unless admin is set.
func (s *orderService) Get(ctx context.Context, orderID uint64, uid string, admin bool) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, readError(err)
	}
	if !admin && o.UserUID != uid {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *orderService) ListByUser(ctx context.Context, uid string, limit, offset int) ([]model.Order, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, total, err := s.orders.ListByUser(ctx, uid, limit, offset)
	if err != nil {
		return nil, 0, txError(err)
	}
	return list, total, nil
}
