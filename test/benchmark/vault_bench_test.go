package benchmark

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/TheMichaelB/notevault/internal/crypto"
	"github.com/TheMichaelB/notevault/internal/models"
	"github.com/TheMichaelB/notevault/internal/storage"
	"github.com/TheMichaelB/notevault/internal/vault"
	"github.com/TheMichaelB/notevault/test/testutil"
)

var contentSizes = []int{
	256,     // short note
	16384,   // 16KB
	1048576, // 1MB
}

func randomContent(b *testing.B, size int) string {
	b.Helper()

	buf := make([]byte, size/2)
	if _, err := rand.Read(buf); err != nil {
		b.Fatal(err)
	}
	return fmt.Sprintf("%x", buf)
}

func BenchmarkSave(b *testing.B) {
	store, err := storage.NewLocalStore(b.TempDir(), testutil.NewTestLogger())
	if err != nil {
		b.Fatal(err)
	}
	vs := vault.NewStore(store, testutil.FastProvider(), testutil.NewTestLogger())

	for _, size := range contentSizes {
		b.Run(fmt.Sprintf("%dB", size), func(b *testing.B) {
			note := models.NewNote("bench", randomContent(b, size))

			b.ResetTimer()
			b.ReportAllocs()
			b.SetBytes(int64(size))

			for i := 0; i < b.N; i++ {
				if err := vs.Save("pw", note, fmt.Sprintf("bench/%d.vault", i%16)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLoad(b *testing.B) {
	store, err := storage.NewLocalStore(b.TempDir(), testutil.NewTestLogger())
	if err != nil {
		b.Fatal(err)
	}
	vs := vault.NewStore(store, testutil.FastProvider(), testutil.NewTestLogger())

	for _, size := range contentSizes {
		b.Run(fmt.Sprintf("%dB", size), func(b *testing.B) {
			location := fmt.Sprintf("bench/%d.vault", size)
			if err := vs.Save("pw", models.NewNote("bench", randomContent(b, size)), location); err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			b.ReportAllocs()
			b.SetBytes(int64(size))

			for i := 0; i < b.N; i++ {
				if _, err := vs.Load("pw", location); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRejectTampered(b *testing.B) {
	blobs := storage.NewMockStore()
	vs := vault.NewStore(blobs, testutil.FastProvider(), testutil.NewTestLogger())
	if err := vs.Save("pw", models.NewNote("bench", "content"), "n.vault"); err != nil {
		b.Fatal(err)
	}
	blobs.Corrupt("n.vault", func(d []byte) []byte {
		d[len(d)-1] ^= 1
		return d
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := vs.Load("pw", "n.vault"); err == nil {
			b.Fatal("tampered record loaded")
		}
	}
}

func BenchmarkDefaultKeyDerivation(b *testing.B) {
	provider := crypto.NewProvider()
	salt, err := crypto.NewSalt()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		keys, err := provider.DeriveKeys("correct horse battery staple", salt)
		if err != nil {
			b.Fatal(err)
		}
		keys.Zero()
	}
}
