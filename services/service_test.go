package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// one connection keeps the in-memory database shared between
	// goroutines and serializes writers
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Admin{},
		&models.RoomType{},
		&models.Customer{},
		&models.Room{},
		&models.Booking{},
		&models.BookingModification{},
		&models.InventorySlot{},
		&models.Transaction{},
		&models.Guest{},
	))
	return db
}

// fakeGateway is an in-memory PaymentGateway whose order statuses the
// tests set directly.
type fakeGateway struct {
	mu         sync.Mutex
	orders     map[string]string
	failCreate bool
	seq        int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{orders: map[string]string{}}
}

func (g *fakeGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCreate {
		return nil, &utils.GatewayError{Op: "create_order", Status: 503}
	}
	g.seq++
	id := fmt.Sprintf("gw_%d", g.seq)
	g.orders[id] = GatewayStatusActive
	return &GatewayOrder{
		OrderID:        req.OrderID,
		GatewayOrderID: id,
		SessionToken:   "sess_" + id,
		Status:         GatewayStatusActive,
	}, nil
}

func (g *fakeGateway) FetchOrderStatus(ctx context.Context, gatewayOrderID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.orders[gatewayOrderID]
	if !ok {
		return "", &utils.GatewayError{Op: "fetch_status", Status: 404}
	}
	return status, nil
}

func (g *fakeGateway) setStatus(gatewayOrderID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[gatewayOrderID] = status
}

type stubKYC struct{ ok bool }

func (s stubKYC) Satisfied(ctx context.Context, bookingID uint) (bool, error) {
	return s.ok, nil
}

type fixture struct {
	db           *gorm.DB
	inventory    *InventoryService
	availability *AvailabilityService
	bookings     *BookingService
	txns         *TransactionService
	refunds      *RefundService
	gateway      *fakeGateway
	customer     models.Customer
	room         models.Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	inv := NewInventoryService(db)
	avail := NewAvailabilityService(db)
	bookings := NewBookingService(db, inv, avail, NewLocalDocumentGenerator(), stubKYC{ok: true})
	gw := newFakeGateway()
	txns := NewTransactionService(db, gw, bookings)
	refunds := NewRefundService(db)

	f := &fixture{
		db:           db,
		inventory:    inv,
		availability: avail,
		bookings:     bookings,
		txns:         txns,
		refunds:      refunds,
		gateway:      gw,
	}

	f.customer = models.Customer{FullName: "Ada Guest", Email: "ada@example.com", Phone: "555-0101"}
	require.NoError(t, db.Create(&f.customer).Error)
	f.room = models.Room{RoomNumber: "101", Floor: "1", Price: 100, MaxOccupancy: 2}
	require.NoError(t, db.Create(&f.room).Error)

	return f
}

func (f *fixture) newRoom(t *testing.T, number string) models.Room {
	t.Helper()
	room := models.Room{RoomNumber: number, Floor: "1", Price: 100, MaxOccupancy: 2}
	require.NoError(t, f.db.Create(&room).Error)
	return room
}

// createBooking writes a PENDING booking for the fixture room.
func (f *fixture) createBooking(t *testing.T, checkIn, checkOut string) *models.Booking {
	t.Helper()
	return f.createBookingFor(t, f.room.ID, checkIn, checkOut)
}

func (f *fixture) createBookingFor(t *testing.T, roomID uint, checkIn, checkOut string) *models.Booking {
	t.Helper()
	booking, err := f.bookings.Create(context.Background(), CreateBookingInput{
		CustomerID:  f.customer.ID,
		RoomID:      roomID,
		CheckIn:     day(checkIn),
		CheckOut:    day(checkOut),
		TotalAmount: 1000,
	})
	require.NoError(t, err)
	return booking
}

func (f *fixture) slotOwners(t *testing.T, roomID uint) map[string]uint {
	t.Helper()
	var slots []models.InventorySlot
	require.NoError(t, f.db.Where("room_id = ? AND booking_id IS NOT NULL", roomID).Find(&slots).Error)
	owners := make(map[string]uint, len(slots))
	for _, s := range slots {
		owners[s.Date.UTC().Format("2006-01-02")] = *s.BookingID
	}
	return owners
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
