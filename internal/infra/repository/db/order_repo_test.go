package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
)

type OrderRepoTestSuite struct {
	suite.Suite
	dao       *DbDao
	orderRepo *OrderRepo
	bookRepo  *BookRepo
	cartRepo  *CartRepo
	userRepo  *UserRepo
}

func (suite *OrderRepoTestSuite) SetupTest() {
	suite.dao = newTestDao(suite.T())
	suite.orderRepo = NewOrderRepo(suite.dao)
	suite.bookRepo = NewBookRepo(suite.dao)
	suite.cartRepo = NewCartRepo(suite.dao)
	suite.userRepo = NewUserRepo(suite.dao)
}

// 創建測試用的用戶
func (suite *OrderRepoTestSuite) createTestUser() *model.User {
	user := &model.User{
		UserName:  "Test User",
		UserEmail: "test@example.com",
	}
	_, err := suite.userRepo.CreateUser(context.Background(), user)
	require.NoError(suite.T(), err)
	return user
}

// 創建測試用的書籍
func (suite *OrderRepoTestSuite) createTestBook(stock int) *model.Book {
	book := &model.Book{
		Title:       "Der Prozess",
		Author:      "Franz Kafka",
		Price:       decimal.RequireFromString("10.00"),
		Stock:       stock,
		IsAvailable: true,
		WeightGrams: 300,
	}
	require.NoError(suite.T(), suite.bookRepo.CreateBook(context.Background(), book))
	return book
}

func (suite *OrderRepoTestSuite) newOrder(userID *uint, bookID uint, qty int, paymentID string) *model.Order {
	return &model.Order{
		OrderID:       uuid.New().String(),
		UserID:        userID,
		Street:        "Musterstr. 1",
		City:          "Berlin",
		PostalCode:    "10115",
		Country:       "DE",
		PaymentMethod: "card",
		PaymentID:     paymentID,
		PaymentStatus: "succeeded",
		TotalPrice:    decimal.RequireFromString("23.99"),
		IsPaid:        true,
		Status:        model.OrderStatusProcessing,
		OrderItems: []model.OrderItem{
			{BookID: bookID, Quantity: qty, UnitPrice: decimal.RequireFromString("10.00"), Title: "Der Prozess"},
		},
	}
}

func (suite *OrderRepoTestSuite) TestCreateOrderDeductsStock() {
	ctx := context.Background()
	user := suite.createTestUser()
	book := suite.createTestBook(3)

	order := suite.newOrder(&user.UserID, book.BookID, 2, "pi_test_1")
	created, reused, err := suite.orderRepo.CreateOrderWithInventory(ctx, order, &user.UserID)

	require.NoError(suite.T(), err)
	require.False(suite.T(), reused)
	require.True(suite.T(), created.InventoryAdjusted)

	got, err := suite.bookRepo.GetBookByID(ctx, book.BookID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 1, got.Stock)
	require.True(suite.T(), got.IsAvailable)
}

func (suite *OrderRepoTestSuite) TestInsufficientStockRollsBackWholeOrder() {
	ctx := context.Background()
	user := suite.createTestUser()
	book := suite.createTestBook(1)

	order := suite.newOrder(&user.UserID, book.BookID, 2, "pi_test_2")
	_, _, err := suite.orderRepo.CreateOrderWithInventory(ctx, order, &user.UserID)

	var stockErr *StockNotEnoughError
	require.ErrorAs(suite.T(), err, &stockErr)
	require.Equal(suite.T(), book.BookID, stockErr.BookID)

	// 庫存不變, 訂單未留下
	got, err := suite.bookRepo.GetBookByID(ctx, book.BookID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 1, got.Stock)

	_, err = suite.orderRepo.GetOrderByPaymentID(ctx, "pi_test_2")
	require.ErrorIs(suite.T(), err, ErrOrderNotFound)
}

func (suite *OrderRepoTestSuite) TestOversellAcrossOrders() {
	ctx := context.Background()
	user := suite.createTestUser()
	book := suite.createTestBook(3)

	// 前三筆各一件成功, 第四筆必須失敗且不影響庫存
	for i := 0; i < 3; i++ {
		order := suite.newOrder(&user.UserID, book.BookID, 1, uuid.New().String())
		_, _, err := suite.orderRepo.CreateOrderWithInventory(ctx, order, nil)
		require.NoError(suite.T(), err)
	}

	order := suite.newOrder(&user.UserID, book.BookID, 1, uuid.New().String())
	_, _, err := suite.orderRepo.CreateOrderWithInventory(ctx, order, nil)
	var stockErr *StockNotEnoughError
	require.ErrorAs(suite.T(), err, &stockErr)

	got, err := suite.bookRepo.GetBookByID(ctx, book.BookID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 0, got.Stock)
	require.False(suite.T(), got.IsAvailable, "庫存歸零時同筆交易內關閉可售狀態")
}

func (suite *OrderRepoTestSuite) TestSamePaymentIDReturnsExistingOrder() {
	ctx := context.Background()
	user := suite.createTestUser()
	book := suite.createTestBook(5)

	first := suite.newOrder(&user.UserID, book.BookID, 2, "pi_dup")
	created, reused, err := suite.orderRepo.CreateOrderWithInventory(ctx, first, nil)
	require.NoError(suite.T(), err)
	require.False(suite.T(), reused)

	second := suite.newOrder(&user.UserID, book.BookID, 2, "pi_dup")
	got, reused, err := suite.orderRepo.CreateOrderWithInventory(ctx, second, nil)
	require.NoError(suite.T(), err)
	require.True(suite.T(), reused)
	require.Equal(suite.T(), created.OrderID, got.OrderID)

	// 庫存只扣一次
	book2, err := suite.bookRepo.GetBookByID(ctx, book.BookID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 3, book2.Stock)
}

func (suite *OrderRepoTestSuite) TestClearsUserCartOnCommit() {
	ctx := context.Background()
	user := suite.createTestUser()
	book := suite.createTestBook(3)

	require.NoError(suite.T(), suite.cartRepo.UpsertCartItem(ctx, &model.CartItem{
		UserID: user.UserID, BookID: book.BookID, Quantity: 2,
	}))

	order := suite.newOrder(&user.UserID, book.BookID, 2, "pi_cart")
	_, _, err := suite.orderRepo.CreateOrderWithInventory(ctx, order, &user.UserID)
	require.NoError(suite.T(), err)

	items, err := suite.cartRepo.GetCartItems(ctx, user.UserID)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), items)
}

func (suite *OrderRepoTestSuite) TestCartKeptWhenOrderFails() {
	ctx := context.Background()
	user := suite.createTestUser()
	book := suite.createTestBook(1)

	require.NoError(suite.T(), suite.cartRepo.UpsertCartItem(ctx, &model.CartItem{
		UserID: user.UserID, BookID: book.BookID, Quantity: 2,
	}))

	order := suite.newOrder(&user.UserID, book.BookID, 2, "pi_cart_fail")
	_, _, err := suite.orderRepo.CreateOrderWithInventory(ctx, order, &user.UserID)
	require.Error(suite.T(), err)

	items, err := suite.cartRepo.GetCartItems(ctx, user.UserID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 1)
}

func (suite *OrderRepoTestSuite) TestMarkOrderPaidIsMonotonic() {
	ctx := context.Background()
	user := suite.createTestUser()
	book := suite.createTestBook(3)

	order := suite.newOrder(&user.UserID, book.BookID, 1, "pi_paid")
	order.IsPaid = false
	order.Status = model.OrderStatusPending
	_, _, err := suite.orderRepo.CreateOrderWithInventory(ctx, order, nil)
	require.NoError(suite.T(), err)

	paidAt := time.Now()
	require.NoError(suite.T(), suite.orderRepo.MarkOrderPaid(ctx, order.OrderID, "succeeded", paidAt))

	got, err := suite.orderRepo.GetOrderByID(ctx, order.OrderID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), got.IsPaid)
	require.NotNil(suite.T(), got.PaidAt)
	require.Equal(suite.T(), model.OrderStatusProcessing, got.Status)

	// 已出貨的訂單不會被webhook拉回processing
	require.NoError(suite.T(), suite.orderRepo.UpdateOrderStatus(ctx, order.OrderID, model.OrderStatusShipped))
	require.NoError(suite.T(), suite.orderRepo.MarkOrderPaid(ctx, order.OrderID, "succeeded", time.Now()))

	got, err = suite.orderRepo.GetOrderByID(ctx, order.OrderID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusShipped, got.Status)
}

func (suite *OrderRepoTestSuite) TestUpdateOrderTracking() {
	ctx := context.Background()
	user := suite.createTestUser()
	book := suite.createTestBook(3)

	order := suite.newOrder(&user.UserID, book.BookID, 1, "pi_track")
	_, _, err := suite.orderRepo.CreateOrderWithInventory(ctx, order, nil)
	require.NoError(suite.T(), err)

	label := &model.Label{
		TrackingNumber: "TRACK123",
		TrackingURL:    "https://carrier.example/t/TRACK123",
		LabelURL:       "https://carrier.example/l/TRACK123.pdf",
	}
	require.NoError(suite.T(), suite.orderRepo.UpdateOrderTracking(ctx, order.OrderID, label))

	got, err := suite.orderRepo.GetOrderByID(ctx, order.OrderID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), got.TrackingNumber)
	require.Equal(suite.T(), "TRACK123", *got.TrackingNumber)
}

func (suite *OrderRepoTestSuite) TestMarkOrderPaidUnknownOrder() {
	err := suite.orderRepo.MarkOrderPaid(context.Background(), "no-such-order", "succeeded", time.Now())
	require.True(suite.T(), errors.Is(err, ErrOrderNotFound))
}

func TestOrderRepoTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepoTestSuite))
}
