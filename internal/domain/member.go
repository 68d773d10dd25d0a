package domain

import (
	"strings"
	"time"
)

// Member — участник программы лояльности. Привязка продажи к участнику
// даёт право на фиксированную скидку при оформлении.
type Member struct {
	ID       string
	Name     string
	Phone    string
	JoinedAt time.Time
}

// Validate проверяет корректность полей участника.
func (m *Member) Validate() []error {
	var errs []error

	if strings.TrimSpace(m.ID) == "" {
		errs = append(errs, ErrMemberIDRequired)
	}

	return errs
}
