package financegate_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/opsportal/ops-portal/internal/financegate"
	"github.com/opsportal/ops-portal/internal/session"
	"github.com/opsportal/ops-portal/internal/store"
	"github.com/opsportal/ops-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Settings.Matches", func() {
	It("compares against a SHA-256 hex digest", func() {
		s := financegate.Settings{FinanceKeyHash: financegate.HashPIN("2468")}
		Expect(s.Matches("2468")).To(BeTrue())
		Expect(s.Matches("1357")).To(BeFalse())
	})

	It("accepts an upper-case digest", func() {
		s := financegate.Settings{FinanceKeyHash: "03AC674216F3E15C761EE1A5E255F067953623C8B388B4459E13F978D7C846F4"}
		Expect(s.Matches("1234")).To(BeTrue())
	})

	It("compares against a bcrypt hash", func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("2468"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		s := financegate.Settings{FinanceKeyHash: string(hash)}
		Expect(s.Matches("2468")).To(BeTrue())
		Expect(s.Matches("2469")).To(BeFalse())
	})

	It("falls back to the plaintext key", func() {
		s := financegate.Settings{FinanceKey: "2468"}
		Expect(s.Matches("2468")).To(BeTrue())
		Expect(s.Matches("")).To(BeFalse())
	})

	It("prefers the hash when both are set", func() {
		s := financegate.Settings{FinanceKey: "1111", FinanceKeyHash: financegate.HashPIN("2222")}
		Expect(s.Matches("2222")).To(BeTrue())
		Expect(s.Matches("1111")).To(BeFalse())
	})
})

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		now      time.Time
		mr       *miniredis.Miniredis
		sessions *session.RedisStore
		settings financegate.SettingsRepository
		service  *financegate.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)
		sessions = session.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
		settings = financegate.NewStoreRepository(store.New(store.NewMemoryBackend(), logger.Discard()))
		service = financegate.NewService(settings, sessions, logger.Discard(),
			financegate.WithClock(func() time.Time { return now }),
		)
	})

	It("refuses to unlock before a key is configured", func() {
		_, err := service.Unlock(ctx, "s1", "1234")
		Expect(err).To(MatchError(financegate.ErrNotConfigured))
	})

	Context("with a configured key", func() {
		BeforeEach(func() {
			Expect(service.SetKey(ctx, financegate.SetKeyDTO{PIN: "2468"})).To(Succeed())
		})

		It("stores only the digest", func() {
			s, err := settings.Get(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.FinanceKey).To(BeEmpty())
			Expect(s.FinanceKeyHash).To(Equal(financegate.HashPIN("2468")))
		})

		It("rejects a wrong PIN with the user-facing message", func() {
			_, err := service.Unlock(ctx, "s1", "0000")
			Expect(err).To(MatchError(financegate.ErrInvalidPIN))
			Expect(err.Error()).To(ContainSubstring("Clave incorrecta."))

			unlocked, _, err := service.IsUnlocked(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(unlocked).To(BeFalse())
		})

		It("unlocks for fifteen minutes and expires lazily on read", func() {
			expiresAt, err := service.Unlock(ctx, "s1", "2468")
			Expect(err).NotTo(HaveOccurred())
			Expect(expiresAt).To(BeTemporally("==", now.Add(15*time.Minute)))
			Expect(mr.Exists("test:finance_unlock:s1")).To(BeTrue())

			now = now.Add(14 * time.Minute)
			unlocked, _, err := service.IsUnlocked(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(unlocked).To(BeTrue())

			now = now.Add(time.Minute)
			unlocked, _, err = service.IsUnlocked(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(unlocked).To(BeFalse())
			Expect(mr.Exists("test:finance_unlock:s1")).To(BeFalse())
		})

		It("keeps unlocks per session", func() {
			_, err := service.Unlock(ctx, "s1", "2468")
			Expect(err).NotTo(HaveOccurred())

			unlocked, _, err := service.IsUnlocked(ctx, "s2")
			Expect(err).NotTo(HaveOccurred())
			Expect(unlocked).To(BeFalse())
		})

		It("locks immediately", func() {
			_, err := service.Unlock(ctx, "s1", "2468")
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Lock(ctx, "s1")).To(Succeed())

			status, err := service.Status(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Unlocked).To(BeFalse())
			Expect(status.Configured).To(BeTrue())
			Expect(status.ExpiresAt).To(BeNil())
		})
	})

	It("rejects keys that are too short", func() {
		err := service.SetKey(ctx, financegate.SetKeyDTO{PIN: "12"})
		Expect(err).To(HaveOccurred())
		s, getErr := settings.Get(ctx)
		Expect(getErr).NotTo(HaveOccurred())
		Expect(s.Configured()).To(BeFalse())
	})

	It("honours a custom ttl", func() {
		service = financegate.NewService(settings, sessions, logger.Discard(),
			financegate.WithClock(func() time.Time { return now }),
			financegate.WithTTL(time.Minute),
		)
		Expect(settings.Set(ctx, financegate.Settings{FinanceKey: "9999"})).To(Succeed())
		expiresAt, err := service.Unlock(ctx, "s1", "9999")
		Expect(err).NotTo(HaveOccurred())
		Expect(expiresAt).To(BeTemporally("==", now.Add(time.Minute)))
	})

	It("seeds the initial key only once", func() {
		written, err := service.EnsureKey(ctx, "1357")
		Expect(err).NotTo(HaveOccurred())
		Expect(written).To(BeTrue())

		written, err = service.EnsureKey(ctx, "8642")
		Expect(err).NotTo(HaveOccurred())
		Expect(written).To(BeFalse())

		_, err = service.Unlock(ctx, "s1", "1357")
		Expect(err).NotTo(HaveOccurred())
	})
})
