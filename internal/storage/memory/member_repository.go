package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// memberRepositoryInMemory — in-memory реестр участников программы лояльности.
type memberRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Member
}

// NewMemberRepository создаёт in-memory реализацию MemberRepository.
func NewMemberRepository() domain.MemberRepository {
	return &memberRepositoryInMemory{items: make(map[string]domain.Member)}
}

// Create сохраняет нового участника.
func (r *memberRepositoryInMemory) Create(member domain.Member) error {
	if errs := member.Validate(); len(errs) > 0 {
		return errs[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[member.ID]; exists {
		return fmt.Errorf("member %s already exists", member.ID)
	}
	r.items[member.ID] = member
	return nil
}

// Get возвращает участника или ErrMemberNotFound.
func (r *memberRepositoryInMemory) Get(id string) (domain.Member, error) {
	id = strings.TrimSpace(id)

	r.mu.RLock()
	defer r.mu.RUnlock()

	member, ok := r.items[id]
	if !ok {
		return domain.Member{}, fmt.Errorf("%w: %s", domain.ErrMemberNotFound, id)
	}
	return member, nil
}

// List возвращает участников, отсортированных по идентификатору.
func (r *memberRepositoryInMemory) List() ([]domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Member, 0, len(r.items))
	for _, member := range r.items {
		result = append(result, member)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

var _ domain.MemberRepository = (*memberRepositoryInMemory)(nil)
