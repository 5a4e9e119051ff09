package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cargoport/internal/dto"
	"cargoport/internal/model"
	"cargoport/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	consistencyReportKey = "ledger:consistency:latest"
	consistencyReportTTL = 48 * time.Hour
)

// LedgerService moves money between counterparty balance buckets and keeps
// the derived invoice balances consistent with invoice history.
type LedgerService interface {
	ProcessPayment(ctx context.Context, req dto.CreatePaymentRequest) (*dto.PaymentResponse, error)
	// DeletePayment reverses the payment's balance effect before removing it.
	DeletePayment(ctx context.Context, id uuid.UUID) error
	GetPayment(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error)
	ListPayments(ctx context.Context, filter dto.PaymentFilter) (*dto.PaymentListResponse, error)

	GetBalance(ctx context.Context, ref model.CounterpartyRef) (*dto.CounterpartyResponse, error)
	// RecalculateAll rebuilds every counterparty's buckets from scratch:
	// invoice balances from invoice history, cash and card from a full
	// payment replay. Idempotent; used by the reconcile worker.
	RecalculateAll(ctx context.Context) error
	// ConsistencyCheck scans for negative cash/card buckets and publishes the
	// report. Anomalies are reported, never auto-corrected.
	ConsistencyCheck(ctx context.Context) (*dto.ConsistencyReport, error)
	LatestReport(ctx context.Context) (*dto.ConsistencyReport, error)
}

type ledgerService struct {
	paymentRepo    repository.PaymentRepository
	invoiceRepo    repository.InvoiceRepository
	counterparties repository.CounterpartyRepository
	invoiceSvc     InvoiceService
	rdb            *redis.Client
	now            func() time.Time
}

func NewLedgerService(
	paymentRepo repository.PaymentRepository,
	invoiceRepo repository.InvoiceRepository,
	counterparties repository.CounterpartyRepository,
	invoiceSvc InvoiceService,
	rdb *redis.Client,
) LedgerService {
	return &ledgerService{
		paymentRepo:    paymentRepo,
		invoiceRepo:    invoiceRepo,
		counterparties: counterparties,
		invoiceSvc:     invoiceSvc,
		rdb:            rdb,
		now:            time.Now,
	}
}

// ── Payments ──────────────────────────────────────────────────────────────────

func (s *ledgerService) ProcessPayment(ctx context.Context, req dto.CreatePaymentRequest) (*dto.PaymentResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, errors.New("amount must be positive")
	}

	p := &model.Payment{
		Amount:      req.Amount,
		Kind:        req.Kind,
		Corrective:  req.Corrective,
		Description: req.Description,
	}
	if req.Sender != nil {
		ref, err := parseRef(*req.Sender)
		if err != nil {
			return nil, err
		}
		p.SenderKind, p.SenderID = &ref.Kind, &ref.ID
	}
	if req.Recipient != nil {
		ref, err := parseRef(*req.Recipient)
		if err != nil {
			return nil, err
		}
		p.RecipientKind, p.RecipientID = &ref.Kind, &ref.ID
	}
	if p.SenderID == nil && p.RecipientID == nil {
		return nil, errors.New("payment needs a sender or a recipient")
	}
	if req.InvoiceID != nil {
		id, err := uuid.Parse(*req.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("invalid invoice_id: %w", err)
		}
		p.InvoiceID = &id
	}
	if p.Kind == model.PaymentKindInvoice && p.InvoiceID == nil {
		return nil, errors.New("invoice payments must reference an invoice")
	}

	txErr := runTx(ctx, s.paymentRepo.DB(), func(tx *gorm.DB) error {
		if err := s.applyTx(tx, p, 1); err != nil {
			return err
		}
		if err := s.paymentRepo.CreateTx(tx, p); err != nil {
			return err
		}
		if p.InvoiceID != nil {
			if err := s.invoiceSvc.RefreshPaymentStateTx(ctx, tx, *p.InvoiceID); err != nil {
				return err
			}
		}
		return s.refreshInvoiceBalancesTx(tx, p)
	})
	if txErr != nil {
		return nil, txErr
	}
	return paymentToResponse(p), nil
}

func (s *ledgerService) DeletePayment(ctx context.Context, id uuid.UUID) error {
	p, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return errors.New("payment not found")
	}

	return runTx(ctx, s.paymentRepo.DB(), func(tx *gorm.DB) error {
		if err := s.applyTx(tx, p, -1); err != nil {
			return err
		}
		if err := s.paymentRepo.DeleteTx(tx, p.ID); err != nil {
			return err
		}
		if p.InvoiceID != nil {
			if err := s.invoiceSvc.RefreshPaymentStateTx(ctx, tx, *p.InvoiceID); err != nil {
				return err
			}
		}
		return s.refreshInvoiceBalancesTx(tx, p)
	})
}

// applyTx moves the payment amount between buckets. direction is +1 to apply
// and -1 to reverse. Both accounts are locked FOR UPDATE in a deterministic
// order so concurrent payments between the same pair cannot deadlock. The
// insufficient-funds check guards forward non-corrective transfers only; a
// reversal restores history and is allowed to drive a bucket negative.
func (s *ledgerService) applyTx(tx *gorm.DB, p *model.Payment, direction int64) error {
	sender, hasSender := p.Sender()
	recipient, hasRecipient := p.Recipient()
	bucket := p.BucketKind()
	delta := p.Amount.Mul(decimal.NewFromInt(direction))

	// Self top-up: a single credit, no funds check.
	if p.SelfPayment() {
		return s.shiftBucketTx(tx, recipient, bucket, delta, true)
	}

	refs := make([]model.CounterpartyRef, 0, 2)
	debits := make(map[model.CounterpartyRef]decimal.Decimal, 2)
	if hasSender {
		refs = append(refs, sender)
		debits[sender] = delta.Neg()
	}
	if hasRecipient {
		refs = append(refs, recipient)
		debits[recipient] = delta
	}
	sortRefs(refs)

	for _, ref := range refs {
		skipCheck := p.Corrective || direction < 0 || debits[ref].Sign() >= 0
		if err := s.shiftBucketTx(tx, ref, bucket, debits[ref], skipCheck); err != nil {
			return err
		}
	}
	return nil
}

func (s *ledgerService) shiftBucketTx(tx *gorm.DB, ref model.CounterpartyRef, bucket string, delta decimal.Decimal, skipCheck bool) error {
	acc, err := s.counterparties.LockAccountTx(tx, ref)
	if err != nil {
		return fmt.Errorf("counterparty %s/%s: %w", ref.Kind, ref.ID, err)
	}

	next := acc.Bucket(bucket).Add(delta)
	if next.IsNegative() && !skipCheck {
		return &InsufficientFundsError{
			Bucket:    bucket,
			Available: acc.Bucket(bucket),
			Requested: delta.Neg(),
		}
	}

	b := acc.Balance
	if bucket == model.PaymentKindCard {
		b.CardBalance = next
	} else {
		b.CashBalance = next
	}
	return s.counterparties.UpdateBalanceTx(tx, ref, b)
}

// refreshInvoiceBalancesTx re-derives the invoice balance of every party to
// the payment from full invoice history, inside the same transaction as the
// bucket shift. The buckets and the derived balance are committed together,
// so invoice_balance never waits for the periodic reconcile.
func (s *ledgerService) refreshInvoiceBalancesTx(tx *gorm.DB, p *model.Payment) error {
	refs := make([]model.CounterpartyRef, 0, 2)
	if sender, ok := p.Sender(); ok {
		refs = append(refs, sender)
	}
	if recipient, ok := p.Recipient(); ok && !p.SelfPayment() {
		refs = append(refs, recipient)
	}
	for _, ref := range refs {
		acc, err := s.counterparties.LockAccountTx(tx, ref)
		if err != nil {
			return fmt.Errorf("counterparty %s/%s: %w", ref.Kind, ref.ID, err)
		}
		in, err := s.invoiceRepo.SumIncomingTx(tx, ref)
		if err != nil {
			return err
		}
		out, err := s.invoiceRepo.SumOutgoingTx(tx, ref)
		if err != nil {
			return err
		}
		b := acc.Balance
		b.InvoiceBalance = in.Sub(out)
		if err := s.counterparties.UpdateBalanceTx(tx, ref, b); err != nil {
			return err
		}
	}
	return nil
}

func sortRefs(refs []model.CounterpartyRef) {
	if len(refs) == 2 {
		a := string(refs[0].Kind) + refs[0].ID.String()
		b := string(refs[1].Kind) + refs[1].ID.String()
		if a > b {
			refs[0], refs[1] = refs[1], refs[0]
		}
	}
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *ledgerService) GetPayment(ctx context.Context, id uuid.UUID) (*dto.PaymentResponse, error) {
	p, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("payment not found")
	}
	return paymentToResponse(p), nil
}

func (s *ledgerService) ListPayments(ctx context.Context, filter dto.PaymentFilter) (*dto.PaymentListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	payments, total, err := s.paymentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, *paymentToResponse(&payments[i]))
	}
	return &dto.PaymentListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *ledgerService) GetBalance(ctx context.Context, ref model.CounterpartyRef) (*dto.CounterpartyResponse, error) {
	acc, err := s.counterparties.FindAccount(ctx, ref)
	if err != nil {
		return nil, errors.New("counterparty not found")
	}
	return accountToResponse(acc), nil
}

// ── Reconciliation ────────────────────────────────────────────────────────────

func (s *ledgerService) RecalculateAll(ctx context.Context) error {
	accounts, err := s.counterparties.ListAccounts(ctx)
	if err != nil {
		return err
	}
	payments, err := s.paymentRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	return runTx(ctx, s.counterparties.DB(), func(tx *gorm.DB) error {
		balances := make(map[model.CounterpartyRef]*model.Balance, len(accounts))
		for i := range accounts {
			balances[accounts[i].Ref] = &model.Balance{
				InvoiceBalance: decimal.Zero,
				CashBalance:    decimal.Zero,
				CardBalance:    decimal.Zero,
			}
		}

		// Invoice balance = incoming totals − outgoing totals, drafts excluded.
		for ref, b := range balances {
			in, err := s.invoiceRepo.SumIncomingTx(tx, ref)
			if err != nil {
				return err
			}
			out, err := s.invoiceRepo.SumOutgoingTx(tx, ref)
			if err != nil {
				return err
			}
			b.InvoiceBalance = in.Sub(out)
		}

		// Cash and card replayed from full payment history, in order.
		for i := range payments {
			p := &payments[i]
			bucket := p.BucketKind()
			if sender, ok := p.Sender(); ok && !p.SelfPayment() {
				if b, ok := balances[sender]; ok {
					shift(b, bucket, p.Amount.Neg())
				}
			}
			if recipient, ok := p.Recipient(); ok {
				if b, ok := balances[recipient]; ok {
					shift(b, bucket, p.Amount)
				}
			}
		}

		for ref, b := range balances {
			if err := s.counterparties.UpdateBalanceTx(tx, ref, *b); err != nil {
				return err
			}
		}
		return nil
	})
}

func shift(b *model.Balance, bucket string, delta decimal.Decimal) {
	if bucket == model.PaymentKindCard {
		b.CardBalance = b.CardBalance.Add(delta)
		return
	}
	b.CashBalance = b.CashBalance.Add(delta)
}

func (s *ledgerService) ConsistencyCheck(ctx context.Context) (*dto.ConsistencyReport, error) {
	accounts, err := s.counterparties.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	report := &dto.ConsistencyReport{
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		Anomalies:   []dto.BalanceAnomaly{},
	}
	for i := range accounts {
		acc := &accounts[i]
		for _, bucket := range []string{model.PaymentKindCash, model.PaymentKindCard} {
			if amount := acc.Bucket(bucket); amount.IsNegative() {
				report.Anomalies = append(report.Anomalies, dto.BalanceAnomaly{
					Kind:   string(acc.Ref.Kind),
					ID:     acc.Ref.ID.String(),
					Name:   acc.Name,
					Bucket: bucket,
					Amount: amount,
				})
			}
		}
	}

	if s.rdb != nil {
		payload, err := json.Marshal(report)
		if err == nil {
			if err := s.rdb.Set(ctx, consistencyReportKey, payload, consistencyReportTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("failed to publish consistency report")
			}
		}
	}
	return report, nil
}

func (s *ledgerService) LatestReport(ctx context.Context) (*dto.ConsistencyReport, error) {
	if s.rdb == nil {
		return s.ConsistencyCheck(ctx)
	}
	payload, err := s.rdb.Get(ctx, consistencyReportKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return s.ConsistencyCheck(ctx)
		}
		return nil, err
	}
	var report dto.ConsistencyReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func paymentToResponse(p *model.Payment) *dto.PaymentResponse {
	resp := &dto.PaymentResponse{
		ID:          p.ID.String(),
		Amount:      p.Amount,
		Kind:        p.Kind,
		Corrective:  p.Corrective,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if p.SenderKind != nil && p.SenderID != nil {
		k, id := string(*p.SenderKind), p.SenderID.String()
		resp.SenderKind, resp.SenderID = &k, &id
	}
	if p.RecipientKind != nil && p.RecipientID != nil {
		k, id := string(*p.RecipientKind), p.RecipientID.String()
		resp.RecipientKind, resp.RecipientID = &k, &id
	}
	if p.InvoiceID != nil {
		id := p.InvoiceID.String()
		resp.InvoiceID = &id
	}
	return resp
}

func accountToResponse(acc *repository.Account) *dto.CounterpartyResponse {
	return &dto.CounterpartyResponse{
		Kind:           string(acc.Ref.Kind),
		ID:             acc.Ref.ID.String(),
		Name:           acc.Name,
		InvoiceBalance: acc.InvoiceBalance,
		CashBalance:    acc.CashBalance,
		CardBalance:    acc.CardBalance,
	}
}
