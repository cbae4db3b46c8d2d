package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"realty-payments/internal/domain"
	"realty-payments/internal/domain/model"
	"realty-payments/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentCols = `id, channel, external_ref, status, activation_state, amount, currency, subject_id, payer_id, payer_phone, txn_id, raw_event, confirmed_by, submitted_at, confirmed_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.Channel, &p.ExternalRef, &p.Status, &p.Activation, &p.Amount, &p.Currency, &p.SubjectID, &p.PayerID, &p.PayerPhone, &p.TxnID, &p.RawEvent, &p.ConfirmedBy, &p.SubmittedAt, &p.ConfirmedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

// FindOrCreate relies on the (channel, external_ref) unique constraint: the
// insert and the duplicate check are one statement, so two concurrent
// notifications for the same reference cannot both insert.
func (r *paymentRepo) FindOrCreate(ctx context.Context, tx repository.Tx, seed *model.Payment) (*model.Payment, bool, error) {
	if seed == nil || seed.ID == "" || seed.ExternalRef == "" {
		return nil, false, domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO payments (
  id, channel, external_ref, status, activation_state, amount, currency, subject_id, payer_id, payer_phone, txn_id, raw_event, created_at, updated_at
) VALUES (
  $1,$2,$3,'pending','none',$4,$5,$6,$7,$8,$9,$10,NOW(),NOW()
) ON CONFLICT (channel, external_ref) DO NOTHING
RETURNING ` + paymentCols + `;`

	row, err := pickRow(ctx, r.pool, tx, q, seed.ID, seed.Channel, seed.ExternalRef, seed.Amount, seed.Currency, seed.SubjectID, seed.PayerID, seed.PayerPhone, seed.TxnID, seed.RawEvent)
	if err != nil {
		return nil, false, err
	}
	p, err := scanPayment(row)
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	// Conflict path: another caller inserted first; return their row.
	existing, err := r.FindByRef(ctx, tx, seed.Channel, seed.ExternalRef)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByRef(ctx context.Context, tx repository.Tx, channel model.PaymentChannel, externalRef string) (*model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments WHERE channel=$1 AND external_ref=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, channel, externalRef)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// Transition is the single guarded compare-and-update every channel funnels
// through. The status guard rides in the WHERE clause, so a lost update is
// impossible without any external lock. Reaching 'confirmed' also flips
// activation_state to 'pending' in the same statement.
func (r *paymentRepo) Transition(ctx context.Context, tx repository.Tx, id string, to model.PaymentStatus, from []model.PaymentStatus, marks *repository.TransitionMarks) (*model.Payment, bool, error) {
	if marks == nil {
		marks = &repository.TransitionMarks{}
	}
	fromStr := make([]string, 0, len(from))
	for _, s := range from {
		fromStr = append(fromStr, string(s))
	}
	const q = `
UPDATE payments
   SET status = $2,
       txn_id = COALESCE(NULLIF($4,''), txn_id),
       payer_phone = COALESCE(NULLIF($5,''), payer_phone),
       raw_event = COALESCE($6, raw_event),
       confirmed_by = COALESCE($7, confirmed_by),
       submitted_at = CASE WHEN $2 = 'submitted' THEN NOW() ELSE submitted_at END,
       confirmed_at = CASE WHEN $2 = 'confirmed' THEN NOW() ELSE confirmed_at END,
       activation_state = CASE WHEN $2 = 'confirmed' THEN 'pending' ELSE activation_state END,
       updated_at = NOW()
 WHERE id = $1
   AND status = ANY($3)
RETURNING ` + paymentCols + `;`

	row, err := pickRow(ctx, r.pool, tx, q, id, to, fromStr, marks.TxnID, marks.PayerPhone, marks.RawEvent, marks.ConfirmedBy)
	if err != nil {
		return nil, false, err
	}
	p, err := scanPayment(row)
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	// Guard failed (record already terminal or id unknown): no-op, return the
	// current row so duplicate deliveries are absorbed silently.
	current, err := r.FindByID(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *paymentRepo) MarkActivation(ctx context.Context, tx repository.Tx, id string, state model.ActivationState) error {
	const q = `UPDATE payments SET activation_state=$2, updated_at=NOW() WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id, state); err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, channel model.PaymentChannel, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentCols + ` FROM payments WHERE channel=$1 AND status='pending' AND created_at < $2 ORDER BY created_at ASC LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, channel, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) ListUnactivated(ctx context.Context, tx repository.Tx, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentCols + ` FROM payments WHERE status='confirmed' AND activation_state IN ('pending','failed') ORDER BY confirmed_at ASC LIMIT $1;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) List(ctx context.Context, tx repository.Tx, filter repository.ListFilter, offset, limit int) ([]*model.Payment, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + paymentCols + ` FROM payments WHERE ($1::text IS NULL OR status=$1) AND ($2::text IS NULL OR channel=$2) ORDER BY created_at DESC OFFSET $3 LIMIT $4;`
	rows, err := queryRows(ctx, r.pool, tx, q, filter.Status, filter.Channel, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := collectPayments(rows)
	if err != nil {
		return nil, 0, err
	}

	countQ := `SELECT COUNT(*) FROM payments WHERE ($1::text IS NULL OR status=$1) AND ($2::text IS NULL OR channel=$2);`
	row, err := pickRow(ctx, r.pool, tx, countQ, filter.Status, filter.Channel)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}
	return out, total, nil
}

func collectPayments(rows pgx.Rows) ([]*model.Payment, error) {
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
