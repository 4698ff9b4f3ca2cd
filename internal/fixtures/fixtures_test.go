package fixtures

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var emailPattern = regexp.MustCompile(`^testuser\d{13,}@automation\.test$`)

func TestUniqueEmail_Format(t *testing.T) {
	assert.Regexp(t, emailPattern, UniqueEmail())
}

func TestUniqueToken_StrictlyIncreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.UnixMilli(rapid.Int64Range(1_700_000_000_000, 1_800_000_000_000).Draw(t, "base"))
		offsets := rapid.SliceOfN(rapid.IntRange(-5, 5), 1, 50).Draw(t, "offsets")

		prev := UniqueToken(base)
		for _, off := range offsets {
			next := UniqueToken(base.Add(time.Duration(off) * time.Millisecond))
			if next <= prev {
				t.Fatalf("token %d not greater than %d", next, prev)
			}
			prev = next
		}
	})
}

func TestUniqueEmail_ConcurrentCallersNeverCollide(t *testing.T) {
	const n = 200
	var (
		mu   sync.Mutex
		seen = make(map[string]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			email := UniqueEmail()
			mu.Lock()
			defer mu.Unlock()
			seen[email] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestAccount_Forms(t *testing.T) {
	acct := NewAccount()
	require.Regexp(t, emailPattern, acct.Email)

	reg := acct.RegistrationForm()
	assert.Equal(t, acct.Email, reg.Get("email"))
	assert.Equal(t, "Test@1234", reg.Get("password"))
	assert.Equal(t, "United States", reg.Get("country"))
	assert.Equal(t, "1990", reg.Get("birth_year"))
	assert.True(t, reg.Has("address2"))
	assert.Len(t, reg, 17)

	login := acct.LoginForm()
	assert.Equal(t, acct.Email, login.Get("email"))
	assert.Equal(t, acct.Password, login.Get("password"))
}
