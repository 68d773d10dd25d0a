package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

type memberRepository struct {
	db *sql.DB
}

// NewMemberRepository создаёт PostgreSQL-реализацию MemberRepository.
func NewMemberRepository(store *Store) domain.MemberRepository {
	return &memberRepository{db: store.DB()}
}

func (r *memberRepository) Create(member domain.Member) error {
	if errs := member.Validate(); len(errs) > 0 {
		return errs[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (id, name, phone, joined_at)
		VALUES ($1,$2,$3,$4)
	`, member.ID, member.Name, member.Phone, member.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("member %s already exists", member.ID)
		}
		return fmt.Errorf("insert member: %w", err)
	}

	return nil
}

func (r *memberRepository) Get(id string) (domain.Member, error) {
	id = strings.TrimSpace(id)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var member domain.Member
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, joined_at
		FROM members
		WHERE id = $1
	`, id).Scan(&member.ID, &member.Name, &member.Phone, &member.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Member{}, fmt.Errorf("%w: %s", domain.ErrMemberNotFound, id)
		}
		return domain.Member{}, fmt.Errorf("select member: %w", err)
	}

	return member, nil
}

func (r *memberRepository) List() ([]domain.Member, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, phone, joined_at
		FROM members
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Member, 0)
	for rows.Next() {
		var member domain.Member
		if err := rows.Scan(&member.ID, &member.Name, &member.Phone, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		result = append(result, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}

	return result, nil
}

var _ domain.MemberRepository = (*memberRepository)(nil)
