package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

const (
	defaultMaxAttempts = 5
	defaultLockWindow  = 15 * time.Minute
)

// lockState отслеживает неудачные попытки входа по логину.
type lockState struct {
	failures    int
	lockedUntil time.Time
}

// Service аутентифицирует персонал: проверка bcrypt-хеша плюс блокировка
// учётной записи после серии неудачных входов.
type Service struct {
	employees   domain.EmployeeRepository
	logger      *log.Entry
	maxAttempts int
	lockWindow  time.Duration

	mu    sync.Mutex
	locks map[string]*lockState
}

// NewService создаёт сервис аутентификации с настройками по умолчанию.
func NewService(employees domain.EmployeeRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "auth")
	}
	return &Service{
		employees:   employees,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		lockWindow:  defaultLockWindow,
		locks:       make(map[string]*lockState),
	}
}

// HashPassword возвращает bcrypt-хеш для сохранения в реестре сотрудников.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login проверяет пару логин/пароль. Неудачные попытки считаются по логину;
// после maxAttempts подряд учётная запись блокируется на lockWindow.
// Несуществующий логин и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(login, password string) (domain.Employee, error) {
	key := strings.ToLower(strings.TrimSpace(login))
	if key == "" || password == "" {
		return domain.Employee{}, domain.ErrInvalidCredentials
	}

	if err := s.checkLock(key); err != nil {
		return domain.Employee{}, err
	}

	employee, err := s.employees.GetByLogin(key)
	if err != nil {
		s.recordFailure(key)
		return domain.Employee{}, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(key)
		s.logger.WithField("login", key).Warn("failed login attempt")
		return domain.Employee{}, domain.ErrInvalidCredentials
	}

	s.resetFailures(key)
	return employee, nil
}

func (s *Service) checkLock(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.locks[key]
	if !ok {
		return nil
	}
	if time.Now().Before(state.lockedUntil) {
		return domain.ErrAccountLocked
	}
	// Окно блокировки истекло, счётчик начинается заново.
	if !state.lockedUntil.IsZero() {
		delete(s.locks, key)
	}
	return nil
}

func (s *Service) recordFailure(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.locks[key]
	if !ok {
		state = &lockState{}
		s.locks[key] = state
	}
	state.failures++
	if state.failures >= s.maxAttempts {
		state.lockedUntil = time.Now().Add(s.lockWindow)
		s.logger.WithFields(log.Fields{
			"login":        key,
			"locked_until": state.lockedUntil.UTC().Format(time.RFC3339),
		}).Warn("account locked after repeated failures")
	}
}

func (s *Service) resetFailures(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
}
