package service

import (
	"context"
	"fmt"

	"keebstore/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// transitions lists the moves allowed in strict mode. Staying in the same
// status is always allowed.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:    {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered, model.OrderStatusRefunded},
	model.OrderStatusDelivered:  {model.OrderStatusRefunded},
}

// CanTransition reports whether strict mode allows moving from one status to another.
func CanTransition(from, to model.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves an order through fulfilment. Moving into cancelled
// returns the items to stock in the same transaction.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Order, error) {
	if req == nil {
		return nil, model.NewValidationError("status", "is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	lock := func(tx pgx.Tx) (*model.Order, error) { return s.orderRepo.LockByID(ctx, tx, id) }

	return s.mutate(ctx, lock, func(tx pgx.Tx, order *model.Order) error {
		from := order.Status
		if s.opts.StrictTransitions && !CanTransition(from, req.Status) {
			s.logger.Warn().
				Str("order_number", order.OrderNumber).
				Str("from", string(from)).
				Str("to", string(req.Status)).
				Msg("illegal status transition")
			return model.NewIllegalTransitionError(from, req.Status)
		}

		// A non-cancelled order holds its units; cancelled holds none.
		switch {
		case req.Status == model.OrderStatusCancelled && from != model.OrderStatusCancelled:
			if err := s.restoreStock(ctx, tx, order); err != nil {
				return err
			}
		case from == model.OrderStatusCancelled && req.Status != model.OrderStatusCancelled:
			if err := s.reserveStock(ctx, tx, order); err != nil {
				return err
			}
		}

		now := s.opts.Now().UTC()
		order.Status = req.Status
		switch req.Status {
		case model.OrderStatusShipped:
			order.TrackingNumber = req.TrackingNumber
			order.ShippingCourier = req.ShippingCourier
			order.ShippedAt = &now
		case model.OrderStatusDelivered:
			order.DeliveredAt = &now
		}
		if req.AdminNotes != nil {
			order.AdminNotes = req.AdminNotes
		}
		order.UpdatedAt = now

		s.logger.Info().
			Str("order_number", order.OrderNumber).
			Str("from", string(from)).
			Str("to", string(req.Status)).
			Msg("order status updated")

		return nil
	})
}

// Cancel cancels a pending or processing, unpaid order and returns its
// items to stock.
func (s *orderService) Cancel(ctx context.Context, orderNumber string) (*model.Order, error) {
	lock := func(tx pgx.Tx) (*model.Order, error) { return s.orderRepo.LockByNumber(ctx, tx, orderNumber) }

	return s.mutate(ctx, lock, func(tx pgx.Tx, order *model.Order) error {
		if !order.CanBeCancelled() {
			s.logger.Warn().
				Str("order_number", order.OrderNumber).
				Str("status", string(order.Status)).
				Str("payment_status", string(order.PaymentStatus)).
				Msg("order cannot be cancelled")
			return model.ErrNotCancellable
		}

		if err := s.restoreStock(ctx, tx, order); err != nil {
			return err
		}

		order.Status = model.OrderStatusCancelled
		order.UpdatedAt = s.opts.Now().UTC()

		s.logger.Info().Str("order_number", order.OrderNumber).Msg("order cancelled")

		return nil
	})
}

// UpdatePaymentStatus records a payment outcome. Marking an order paid
// requires it to still await payment.
func (s *orderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, req *model.UpdatePaymentStatusRequest) (*model.Order, error) {
	if req == nil {
		return nil, model.NewValidationError("payment_status", "is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	lock := func(tx pgx.Tx) (*model.Order, error) { return s.orderRepo.LockByID(ctx, tx, id) }

	return s.mutate(ctx, lock, func(_ pgx.Tx, order *model.Order) error {
		now := s.opts.Now().UTC()

		if req.PaymentStatus == model.PaymentStatusPaid {
			if !order.CanBePaid() {
				s.logger.Warn().
					Str("order_number", order.OrderNumber).
					Str("status", string(order.Status)).
					Str("payment_status", string(order.PaymentStatus)).
					Msg("order is not awaiting payment")
				return model.ErrNotPayable
			}
			order.PaidAt = &now
		}

		order.PaymentStatus = req.PaymentStatus
		if req.PaymentProof != nil {
			order.PaymentProof = req.PaymentProof
		}
		order.UpdatedAt = now

		s.logger.Info().
			Str("order_number", order.OrderNumber).
			Str("payment_status", string(order.PaymentStatus)).
			Msg("payment status updated")

		return nil
	})
}

// mutate locks an order, applies change and persists it, all in one
// transaction.
func (s *orderService) mutate(
	ctx context.Context,
	lock func(tx pgx.Tx) (*model.Order, error),
	change func(tx pgx.Tx, order *model.Order) error,
) (_ *model.Order, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := lock(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if err = change(tx, order); err != nil {
		return nil, err
	}

	if err = s.orderRepo.Update(ctx, tx, order); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return order, nil
}

// restoreStock returns every item's quantity to its product. Items whose
// product no longer exists are skipped.
// reserveStock takes a reopened order's units back out of stock. It fails
// with an insufficient stock error when the units were sold in the meantime.
func (s *orderService) reserveStock(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	reqs := make([]model.OrderItemRequest, len(order.Items))
	for i, item := range order.Items {
		reqs[i] = model.OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	lines, err := aggregate(reqs)
	if err != nil {
		return err
	}
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.productID
	}

	products, err := s.productRepo.LockWithDetails(ctx, tx, ids)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	for _, l := range lines {
		p, ok := products[l.productID]
		if !ok {
			s.logger.Warn().
				Str("order_number", order.OrderNumber).
				Int64("product_id", l.productID).
				Msg("product no longer exists, order cannot be reopened")
			return model.NewProductNotFoundError(l.productID)
		}
		if p.StockQuantity < l.quantity {
			s.logger.Warn().
				Str("order_number", order.OrderNumber).
				Int64("product_id", p.ID).
				Int("requested", l.quantity).
				Int("available", p.StockQuantity).
				Msg("insufficient stock to reopen order")
			return model.NewInsufficientStockError(p.ID, p.Name, l.quantity, p.StockQuantity)
		}
	}

	for _, l := range lines {
		ok, err := s.productRepo.DecrementStock(ctx, tx, l.productID, l.quantity)
		if err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
		if !ok {
			p := products[l.productID]
			return model.NewInsufficientStockError(p.ID, p.Name, l.quantity, p.StockQuantity)
		}
	}
	return nil
}

func (s *orderService) restoreStock(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	for _, item := range order.Items {
		ok, err := s.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
		if !ok {
			s.logger.Warn().
				Str("order_number", order.OrderNumber).
				Int64("product_id", item.ProductID).
				Msg("product no longer exists, stock not restored")
		}
	}
	return nil
}
