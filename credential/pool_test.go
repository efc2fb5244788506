package credential

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RoundRobinFairness(t *testing.T) {
	for n := 1; n <= 6; n++ {
		t.Run(fmt.Sprintf("size %d", n), func(t *testing.T) {
			secrets := make([]string, n)
			for i := range secrets {
				secrets[i] = fmt.Sprintf("secret-%02d", i)
			}
			pool := New(secrets)
			require.Equal(t, n, pool.Len())

			for i := 0; i < n; i++ {
				c, err := pool.Next()
				require.NoError(t, err)
				assert.Equal(t, secrets[i], c.Secret)
				assert.Equal(t, i, c.Index)
			}
			c, err := pool.Next()
			require.NoError(t, err)
			assert.Equal(t, secrets[0], c.Secret, "N+1th call wraps to the first entry")
		})
	}
}

func TestPool_SkipsBlankEntries(t *testing.T) {
	pool := New([]string{"", "  alpha-key ", "\t", "beta-key"})
	assert.Equal(t, 2, pool.Len())

	first, _ := pool.Next()
	second, _ := pool.Next()
	assert.Equal(t, "alpha-key", first.Secret)
	assert.Equal(t, "beta-key", second.Secret)
}

func TestPool_Exhausted(t *testing.T) {
	for _, secrets := range [][]string{nil, {}, {"", " "}} {
		_, err := New(secrets).Next()
		assert.ErrorIs(t, err, ErrPoolExhausted)
	}
}

func TestPool_ConcurrentNextIsFair(t *testing.T) {
	pool := New([]string{"key-aaaa", "key-bbbb", "key-cccc"})
	counts := map[string]int{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 300; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := pool.Next()
			if err != nil {
				return
			}
			mu.Lock()
			counts[c.Secret]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]int{"key-aaaa": 100, "key-bbbb": 100, "key-cccc": 100}, counts)
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", MaskPlaceholder},
		{"abc", MaskPlaceholder},
		{"abcde", MaskPlaceholder},
		{"abcdef", "abc...def"},
		{"sk-ant-1234567890-xyz", "sk-...xyz"},
		{"ключ", MaskPlaceholder},
		{"пароль-секрет", "пар...рет"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.in))
		})
	}
}

func TestMask_MultiByteStaysValidUTF8(t *testing.T) {
	masked := Mask("日本語のひみつ鍵です")
	assert.True(t, utf8.ValidString(masked))
	assert.Equal(t, "日本語...鍵です", masked)
}

func TestMask_NeverRevealsMiddle(t *testing.T) {
	secret := "AKIA" + strings.Repeat("S", 20) + "END"
	masked := Mask(secret)
	assert.Equal(t, "AKI...END", masked)
	assert.NotContains(t, masked, "SSS")
	assert.Equal(t, masked, Credential{Secret: secret}.String())
}
