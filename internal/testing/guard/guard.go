package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("HARBORLANE_TEST_MODE") == "" {
			_ = os.Setenv("HARBORLANE_TEST_MODE", "1")
		}
	})
}
