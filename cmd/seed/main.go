package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/pillbox/medication-adherence-tracker/internal/db"
	"github.com/pillbox/medication-adherence-tracker/internal/tracker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	repo := tracker.NewPgRepository(pool)

	if err := seedCourses(context.Background(), repo, 8); err != nil {
		log.Fatalf("seed courses: %v", err)
	}
	if err := seedAppointments(context.Background(), repo, 5); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedCourses(ctx context.Context, repo *tracker.PgRepository, count int) error {
	log.Printf("seeding %d courses", count)

	pills := []string{
		"Amoxicillin",
		"Metformin",
		"Lisinopril",
		"Atorvastatin",
		"Omeprazole",
		"Levothyroxine",
		"Vitamin D3",
		"Ibuprofen",
	}

	slotSets := [][]tracker.TimeSlot{
		{tracker.SlotMorning},
		{tracker.SlotNight},
		{tracker.SlotMorning, tracker.SlotNight},
		{tracker.SlotMorning, tracker.SlotAfternoon, tracker.SlotNight},
	}

	for i := 0; i < count; i++ {
		pill := pills[gofakeit.Number(0, len(pills)-1)]
		slots := slotSets[gofakeit.Number(0, len(slotSets)-1)]

		// Start a few days in the past so the sweeper and analytics have
		// material to work with.
		start := tracker.Today().AddDays(-gofakeit.Number(0, 10))
		duration := gofakeit.Number(5, 30)

		now := time.Now().UTC()
		course := &tracker.Course{
			ID:           uuid.New(),
			CourseName:   pill + " course",
			PillName:     pill,
			TimeSlots:    slots,
			StartDate:    start,
			DurationDays: duration,
			CreatedAt:    now,
		}
		entries := tracker.BuildSchedule(course.ID, start, duration, slots, now)

		if err := repo.InsertCourseWithSchedule(ctx, course, entries); err != nil {
			return err
		}
	}

	log.Println("courses seeded")
	return nil
}

func seedAppointments(ctx context.Context, repo *tracker.PgRepository, count int) error {
	log.Printf("seeding %d appointments", count)

	purposes := []string{
		"Routine checkup",
		"Blood pressure review",
		"Prescription renewal",
		"Lab results",
		"Follow-up visit",
	}

	for i := 0; i < count; i++ {
		appt := &tracker.Appointment{
			ID:         uuid.New(),
			DoctorName: "Dr. " + gofakeit.LastName(),
			Date:       tracker.Today().AddDays(gofakeit.Number(-5, 30)),
			Time:       tracker.Clock{Hour: gofakeit.Number(8, 17), Minute: gofakeit.Number(0, 59)},
			Purpose:    purposes[gofakeit.Number(0, len(purposes)-1)],
			Notes:      gofakeit.Sentence(6),
			Completed:  false,
			CreatedAt:  time.Now().UTC(),
		}

		if err := repo.InsertAppointment(ctx, appt); err != nil {
			return err
		}
	}

	log.Println("appointments seeded")
	return nil
}
