package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Timestamps are persisted as ISO-8601 strings, matching the original
// document layout. Values written by older producers may carry a bare `Z`
// suffix or no offset at all; reads normalize both to UTC.
const storedTimeLayout = "2006-01-02T15:04:05.999999-07:00"

func formatStoredTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseStoredTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05.999999", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// PostgresRepository stores accounts and movements in PostgreSQL.
type PostgresRepository struct {
	db          *pgxpool.Pool
	maxAttempts int
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db, maxAttempts: DefaultNumberAttempts}
}

const accountColumns = `id, cliente_id, numero_cuenta, tipo, moneda, saldo, estado,
	fecha_apertura, created_at, updated_at, version`

// Create assigns a unique account number, stamps timestamps and inserts the
// account, returning the generated id.
func (r *PostgresRepository) Create(ctx context.Context, acc Account) (string, error) {
	number, err := r.uniqueNumber(ctx)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	var id uuid.UUID
	err = r.db.QueryRow(ctx, `INSERT INTO cuentas
		(id, cliente_id, numero_cuenta, tipo, moneda, saldo, estado, fecha_apertura, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0)
		RETURNING id`,
		uuid.New(), acc.ClientID, number, string(acc.Type), string(acc.Currency),
		acc.Balance, string(acc.State), formatStoredTime(acc.OpenedAt),
		formatStoredTime(now), formatStoredTime(now),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert cuenta: %w", err)
	}
	return id.String(), nil
}

func (r *PostgresRepository) uniqueNumber(ctx context.Context) (string, error) {
	for i := 0; i < r.maxAttempts; i++ {
		number := randomAccountNumber()
		var exists bool
		err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM cuentas WHERE numero_cuenta = $1)`, number,
		).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("check numero_cuenta: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
	return "", ErrNumberExhausted
}

// GetByID fetches one account. Malformed ids behave as absent accounts.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM cuentas WHERE id = $1`, accountID)
	return scanAccount(row)
}

// GetByNumber fetches one account by its external 10-digit number.
func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (Account, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM cuentas WHERE numero_cuenta = $1`, number)
	return scanAccount(row)
}

// List returns accounts matching the filter conjunction, store-native order.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM cuentas`
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ClientID != "" {
		add("cliente_id = $%d", f.ClientID)
	}
	if f.Number != "" {
		add("numero_cuenta = $%d", f.Number)
	}
	if f.State != "" {
		add("estado = $%d", string(f.State))
	}
	if f.Currency != "" {
		add("moneda = $%d", string(f.Currency))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cuentas: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

// Update patches tipo/estado and stamps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, id string, p Patch) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	sets := []string{"updated_at = $1"}
	args := []any{formatStoredTime(time.Now().UTC())}
	if p.Type != nil {
		args = append(args, string(*p.Type))
		sets = append(sets, fmt.Sprintf("tipo = $%d", len(args)))
	}
	if p.State != nil {
		args = append(args, string(*p.State))
		sets = append(sets, fmt.Sprintf("estado = $%d", len(args)))
	}
	args = append(args, accountID)

	tag, err := r.db.Exec(ctx,
		fmt.Sprintf(`UPDATE cuentas SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...)
	if err != nil {
		return fmt.Errorf("update cuenta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ChangeState transitions the account's estado field.
func (r *PostgresRepository) ChangeState(ctx context.Context, id string, s State) error {
	return r.Update(ctx, id, Patch{State: &s})
}

// CommitOperation writes the new balance and the paired movement in one
// transaction. The version predicate makes concurrent balance updates fail
// with ErrConflict instead of silently losing one of them.
func (r *PostgresRepository) CommitOperation(ctx context.Context, id string, newBalance decimal.Decimal, version int64, mov Movement) (string, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("begin operation: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, `UPDATE cuentas
		SET saldo = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, formatStoredTime(now), accountID, version)
	if err != nil {
		return "", fmt.Errorf("update saldo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM cuentas WHERE id = $1)`, accountID,
		).Scan(&exists); err != nil {
			return "", fmt.Errorf("check cuenta: %w", err)
		}
		if !exists {
			return "", ErrNotFound
		}
		return "", ErrConflict
	}

	movementID := uuid.New()
	var reference *string
	if mov.Reference != "" {
		reference = &mov.Reference
	}
	if _, err := tx.Exec(ctx, `INSERT INTO movimientos
		(id, cuenta_id, tipo, monto, saldo_anterior, saldo_nuevo, descripcion, referencia, fecha, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		movementID, accountID, string(mov.Type), mov.Amount, mov.BalanceBefore,
		mov.BalanceAfter, mov.Description, reference,
		formatStoredTime(mov.OccurredAt), formatStoredTime(now)); err != nil {
		return "", fmt.Errorf("insert movimiento: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit operation: %w", err)
	}
	return movementID.String(), nil
}

// Movements returns the account's ledger newest first.
func (r *PostgresRepository) Movements(ctx context.Context, accountID string, f MovementFilter, limit int) ([]Movement, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrNotFound
	}

	query := `SELECT id, cuenta_id, tipo, monto, saldo_anterior, saldo_nuevo,
		descripcion, referencia, fecha, created_at
		FROM movimientos WHERE cuenta_id = $1`
	args := []any{id}
	if f.Type != "" {
		args = append(args, string(f.Type))
		query += fmt.Sprintf(" AND tipo = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, formatStoredTime(f.From))
		query += fmt.Sprintf(" AND fecha >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, formatStoredTime(f.To))
		query += fmt.Sprintf(" AND fecha <= $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY fecha DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movimientos: %w", err)
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var (
			mov       Movement
			movID     uuid.UUID
			acctID    uuid.UUID
			movType   string
			reference *string
			fecha     string
			createdAt string
		)
		if err := rows.Scan(&movID, &acctID, &movType, &mov.Amount, &mov.BalanceBefore,
			&mov.BalanceAfter, &mov.Description, &reference, &fecha, &createdAt); err != nil {
			return nil, fmt.Errorf("scan movimiento: %w", err)
		}
		mov.ID = movID.String()
		mov.AccountID = acctID.String()
		if mov.Type, err = ParseMovementType(movType); err != nil {
			return nil, err
		}
		if reference != nil {
			mov.Reference = *reference
		}
		if mov.OccurredAt, err = parseStoredTime(fecha); err != nil {
			return nil, err
		}
		if mov.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, mov)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var (
		acc       Account
		id        uuid.UUID
		tipo      string
		moneda    string
		estado    string
		opened    string
		createdAt string
		updatedAt string
	)
	err := row.Scan(&id, &acc.ClientID, &acc.Number, &tipo, &moneda, &acc.Balance,
		&estado, &opened, &createdAt, &updatedAt, &acc.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("scan cuenta: %w", err)
	}
	acc.ID = id.String()
	if acc.Type, err = ParseAccountType(tipo); err != nil {
		return Account{}, err
	}
	if acc.Currency, err = ParseCurrency(moneda); err != nil {
		return Account{}, err
	}
	if acc.State, err = ParseState(estado); err != nil {
		return Account{}, err
	}
	if acc.OpenedAt, err = parseStoredTime(opened); err != nil {
		return Account{}, err
	}
	if acc.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return Account{}, err
	}
	if acc.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return Account{}, err
	}
	return acc, nil
}
