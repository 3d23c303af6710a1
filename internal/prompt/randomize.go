package prompt

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dmorgan81/webuibot/internal/log"
	"github.com/samber/do"
)

var ErrNoPrompts = errors.New("no prompts configured")

// Randomizer picks prompts from a list of "prompt|negative prompt" entries.
type Randomizer struct {
	prompts []string
	rnd     *rand.Rand
	mu      sync.Mutex
}

func New(prompts []string, seed int64) *Randomizer {
	return &Randomizer{prompts: prompts, rnd: rand.New(rand.NewSource(seed))}
}

func NewRandomizer(i *do.Injector) (*Randomizer, error) {
	return New(do.MustInvokeNamed[[]string](i, "prompts"), time.Now().UTC().UnixNano()), nil
}

// Randomize returns a prompt and its negative prompt. Entries without a "|"
// have an empty negative prompt.
func (r *Randomizer) Randomize(ctx context.Context) (string, string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("randomizer")
	log.Info("getting random prompt", "choices", len(r.prompts))
	if len(r.prompts) == 0 {
		return "", "", ErrNoPrompts
	}

	r.mu.Lock()
	idx := r.rnd.Intn(len(r.prompts))
	r.mu.Unlock()

	prompt, negative, _ := strings.Cut(r.prompts[idx], "|")
	return strings.TrimSpace(prompt), strings.TrimSpace(negative), nil
}
