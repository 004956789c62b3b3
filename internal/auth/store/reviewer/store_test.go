package reviewer

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landregistry/internal/auth/models"
	"landregistry/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.FindByEmail(ctx, "officer@gov.example")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, s.Save(ctx, &models.Reviewer{Email: "officer@gov.example", DisplayName: "Officer", PasswordHash: "x"}))
	r, err := s.FindByEmail(ctx, "officer@gov.example")
	require.NoError(t, err)
	assert.Equal(t, "Officer", r.DisplayName)
}

func TestPostgresFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)
	query := regexp.QuoteMeta(`FROM reviewers WHERE email = $1`)
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(query).WithArgs("officer@gov.example").
		WillReturnRows(sqlmock.NewRows([]string{"email", "display_name", "password_hash", "created_at"}).
			AddRow("officer@gov.example", "Officer", "$2a$hash", created))
	r, err := store.FindByEmail(context.Background(), "officer@gov.example")
	require.NoError(t, err)
	assert.Equal(t, "$2a$hash", r.PasswordHash)

	mock.ExpectQuery(query).WithArgs("nobody@gov.example").WillReturnError(sql.ErrNoRows)
	_, err = store.FindByEmail(context.Background(), "nobody@gov.example")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
