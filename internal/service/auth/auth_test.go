package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/service/auth"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func seedEmployee(t *testing.T, repo domain.EmployeeRepository, login, password string) {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	require.NoError(t, repo.Create(domain.Employee{
		ID:           "E001",
		Login:        login,
		Name:         "Test Cashier",
		PasswordHash: hash,
		Role:         domain.EmployeeRoleCashier,
		CreatedAt:    time.Now().UTC(),
	}))
}

func TestLogin_Success(t *testing.T) {
	repo := memory.NewEmployeeRepository()
	seedEmployee(t, repo, "cashier1", "s3cret")

	svc := auth.NewService(repo, nil)

	employee, err := svc.Login("cashier1", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "E001", employee.ID)
	assert.Equal(t, domain.EmployeeRoleCashier, employee.Role)
}

func TestLogin_CaseInsensitiveLogin(t *testing.T) {
	repo := memory.NewEmployeeRepository()
	seedEmployee(t, repo, "cashier1", "s3cret")

	svc := auth.NewService(repo, nil)

	_, err := svc.Login("CASHIER1", "s3cret")
	require.NoError(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := memory.NewEmployeeRepository()
	seedEmployee(t, repo, "cashier1", "s3cret")

	svc := auth.NewService(repo, nil)

	_, err := svc.Login("cashier1", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownLoginIndistinguishable(t *testing.T) {
	repo := memory.NewEmployeeRepository()
	seedEmployee(t, repo, "cashier1", "s3cret")

	svc := auth.NewService(repo, nil)

	_, wrongPass := svc.Login("cashier1", "wrong")
	_, unknownLogin := svc.Login("ghost", "wrong")

	assert.ErrorIs(t, wrongPass, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownLogin, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPass.Error(), unknownLogin.Error())
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	repo := memory.NewEmployeeRepository()
	seedEmployee(t, repo, "cashier1", "s3cret")

	svc := auth.NewService(repo, nil)

	for i := 0; i < 5; i++ {
		_, err := svc.Login("cashier1", "wrong")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	// Шестая попытка блокируется даже с верным паролем.
	_, err := svc.Login("cashier1", "s3cret")
	require.ErrorIs(t, err, domain.ErrAccountLocked)
}

func TestLogin_SuccessResetsFailureCounter(t *testing.T) {
	repo := memory.NewEmployeeRepository()
	seedEmployee(t, repo, "cashier1", "s3cret")

	svc := auth.NewService(repo, nil)

	for i := 0; i < 4; i++ {
		_, _ = svc.Login("cashier1", "wrong")
	}
	_, err := svc.Login("cashier1", "s3cret")
	require.NoError(t, err)

	// После успешного входа счётчик начинается заново.
	for i := 0; i < 4; i++ {
		_, _ = svc.Login("cashier1", "wrong")
	}
	_, err = svc.Login("cashier1", "s3cret")
	require.NoError(t, err)
}

func TestLogin_EmptyCredentials(t *testing.T) {
	svc := auth.NewService(memory.NewEmployeeRepository(), nil)

	_, err := svc.Login("", "")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
