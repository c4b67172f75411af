package pgstore

import (
	"context"

	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
)

// AccountLookup resolves identifiers against the identity users table.
type AccountLookup struct {
	conn Conn
	ins  instrument.Instrumentation
}

var _ otp.AccountLookup = (*AccountLookup)(nil)

// NewAccountLookup builds an AccountLookup over the given pool.
func NewAccountLookup(conn Conn, ins instrument.Instrumentation) *AccountLookup {
	return &AccountLookup{conn: conn, ins: ins}
}

// FindByIdentifier returns the account currently owning the identifier,
// matching either the email or phone column.
func (s *AccountLookup) FindByIdentifier(ctx context.Context, id otp.Identifier) (_ int64, err error) {
	ctx, span := startSpan(ctx, s.ins, "FindByIdentifier")
	defer func() { endSpan(span, err) }()

	var accountID int64
	err = s.conn.QueryRow(ctx,
		`select id from identity_users where email = $1 or phone = $1 limit 1`,
		id).Scan(&accountID)
	if err != nil {
		return 0, mapError(err)
	}
	return accountID, nil
}
