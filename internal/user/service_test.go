package user_test

import (
	"context"
	"sync"
	"time"

	"github.com/opsportal/ops-portal/internal/core/events"
	"github.com/opsportal/ops-portal/internal/schedule"
	"github.com/opsportal/ops-portal/internal/store"
	"github.com/opsportal/ops-portal/internal/user"
	"github.com/opsportal/ops-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func ptr[T any](v T) *T { return &v }

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		repo      user.RepositoryAPI
		publisher *recordingPublisher
		service   *user.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		st := store.New(store.NewMemoryBackend(), logger.Discard())
		repo = user.NewStoreRepository(st)
		publisher = &recordingPublisher{}
		schedules := schedule.NewService(schedule.NewStoreRepository(st), logger.Discard())
		service = user.NewService(repo, logger.Discard(),
			user.WithClock(func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }),
			user.WithPublisher(publisher),
			user.WithScheduleLookup(schedules),
			user.WithBCryptCost(bcrypt.MinCost),
		)
	})

	create := func(email string, role user.Role) *user.Profile {
		p, err := service.Create(ctx, user.CreateUserDTO{
			Email: email, Password: "secreto123", DisplayName: email, Role: role,
		})
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	Describe("Create", func() {
		It("hashes the password and approves the account", func() {
			p := create("Ana@Example.com ", user.RoleAdmin)
			Expect(p.Email).To(Equal("ana@example.com"))
			Expect(p.Active).To(BeTrue())
			Expect(p.IsApproved()).To(BeTrue())
			Expect(p.PasswordHash).NotTo(Equal("secreto123"))
			Expect(user.VerifyPassword(p.PasswordHash, "secreto123")).To(Succeed())
		})

		It("rejects a taken email regardless of case", func() {
			create("ana@example.com", user.RoleAdmin)
			_, err := service.Create(ctx, user.CreateUserDTO{
				Email: "ANA@example.com", Password: "secreto123", DisplayName: "Ana", Role: user.RoleCollab,
			})
			Expect(err).To(MatchError(user.ErrEmailTaken))
		})

		It("rejects an unknown role", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{
				Email: "ana@example.com", Password: "secreto123", DisplayName: "Ana", Role: "owner",
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown schedule", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{
				Email: "ana@example.com", Password: "secreto123", DisplayName: "Ana", Role: user.RoleCollab,
				WorkScheduleID: ptr("nope"),
			})
			Expect(err).To(MatchError(schedule.ErrScheduleNotFound))
		})
	})

	Describe("Register", func() {
		It("creates an unapproved collaborator", func() {
			p, err := service.Register(ctx, user.RegisterDTO{Email: "luis@example.com", Password: "secreto123", DisplayName: "Luis"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Role).To(Equal(user.RoleCollab))
			Expect(p.IsApproved()).To(BeFalse())

			approved, err := service.Approve(ctx, p.UID)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.IsApproved()).To(BeTrue())
		})

		It("rejects a malformed email", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Email: "luis", Password: "secreto123", DisplayName: "Luis"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("last admin", func() {
		var admin *user.Profile

		BeforeEach(func() {
			admin = create("admin@example.com", user.RoleAdmin)
			create("colab@example.com", user.RoleCollab)
		})

		It("refuses to deactivate the only active admin and leaves users unchanged", func() {
			before, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.SetActive(ctx, admin.UID, false)
			Expect(err).To(MatchError(user.ErrLastAdmin))
			Expect(err.Error()).To(Equal("No puedes desactivar al último admin."))

			after, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
			Expect(publisher.types()).To(BeEmpty())
		})

		It("refuses to demote the only active admin", func() {
			_, err := service.UpdateRole(ctx, admin.UID, user.UpdateRoleDTO{Role: user.RoleCollab})
			Expect(err).To(MatchError(user.ErrLastAdminDemote))

			p, err := service.GetByID(ctx, admin.UID)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Role).To(Equal(user.RoleAdmin))
		})

		It("allows it once another admin is active", func() {
			create("otra@example.com", user.RoleAdmin)

			p, err := service.SetActive(ctx, admin.UID, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Active).To(BeFalse())
			Expect(publisher.types()).To(ConsistOf(events.EventTypeUserActiveChanged))
		})

		It("does not count inactive admins", func() {
			other := create("otra@example.com", user.RoleAdmin)
			_, err := service.SetActive(ctx, other.UID, false)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.SetActive(ctx, admin.UID, false)
			Expect(err).To(MatchError(user.ErrLastAdmin))
		})

		It("does not count an admin whose isActive flag is false", func() {
			other := create("otra@example.com", user.RoleAdmin)
			_, err := repo.Update(ctx, other.UID, func(p *user.Profile, _ []user.Profile) error {
				p.IsActive = ptr(false)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.SetActive(ctx, admin.UID, false)
			Expect(err).To(MatchError(user.ErrLastAdmin))
		})

		It("reactivates the optional isActive flag along with active", func() {
			create("otra@example.com", user.RoleAdmin)
			colab := create("colab2@example.com", user.RoleCollab)
			_, err := repo.Update(ctx, colab.UID, func(p *user.Profile, _ []user.Profile) error {
				p.IsActive = ptr(false)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			p, err := service.SetActive(ctx, colab.UID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.IsEnabled()).To(BeTrue())
			Expect(*p.IsActive).To(BeTrue())
			Expect(publisher.types()).To(ConsistOf(events.EventTypeUserActiveChanged))
		})

		It("lets an inactive admin be demoted", func() {
			other := create("otra@example.com", user.RoleAdmin)
			_, err := service.SetActive(ctx, other.UID, false)
			Expect(err).NotTo(HaveOccurred())

			p, err := service.UpdateRole(ctx, other.UID, user.UpdateRoleDTO{Role: user.RoleCollab})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Role).To(Equal(user.RoleCollab))
		})
	})

	Describe("UpdateRole", func() {
		It("publishes only when the role changes", func() {
			create("admin@example.com", user.RoleAdmin)
			colab := create("colab@example.com", user.RoleCollab)

			_, err := service.UpdateRole(ctx, colab.UID, user.UpdateRoleDTO{Role: user.RoleCollab})
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.types()).To(BeEmpty())

			_, err = service.UpdateRole(ctx, colab.UID, user.UpdateRoleDTO{Role: user.RoleAdmin})
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.types()).To(Equal([]string{events.EventTypeUserRoleChanged}))
		})

		It("reports unknown users", func() {
			_, err := service.UpdateRole(ctx, "missing", user.UpdateRoleDTO{Role: user.RoleAdmin})
			Expect(err).To(MatchError(user.ErrUserNotFound))
		})
	})

	Describe("schedules and profile", func() {
		It("assigns and clears a work schedule", func() {
			p := create("colab@example.com", user.RoleCollab)

			_, err := service.AssignSchedule(ctx, p.UID, user.AssignScheduleDTO{WorkScheduleID: ptr(schedule.DefaultPartTimeID)})
			Expect(err).NotTo(HaveOccurred())
			id, err := service.WorkScheduleID(ctx, p.UID)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(HaveValue(Equal(schedule.DefaultPartTimeID)))

			_, err = service.AssignSchedule(ctx, p.UID, user.AssignScheduleDTO{})
			Expect(err).NotTo(HaveOccurred())
			id, err = service.WorkScheduleID(ctx, p.UID)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(BeNil())
		})

		It("updates only the given profile fields", func() {
			p := create("colab@example.com", user.RoleCollab)
			updated, err := service.UpdateProfile(ctx, p.UID, user.UpdateProfileDTO{Position: ptr(" Diseño ")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Position).To(Equal("Diseño"))
			Expect(updated.DisplayName).To(Equal(p.DisplayName))
		})

		It("looks users up by email", func() {
			p := create("colab@example.com", user.RoleCollab)
			found, err := service.GetByEmail(ctx, " COLAB@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.UID).To(Equal(p.UID))

			_, err = service.GetByEmail(ctx, "nadie@example.com")
			Expect(err).To(MatchError(user.ErrUserNotFound))
		})
	})
})
