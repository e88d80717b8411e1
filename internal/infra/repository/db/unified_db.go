package db

import (
	"context"
	"time"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"gorm.io/gorm"
)

// UnifiedDB 統一的資料庫介面
type UnifiedDB interface {
	GetDB() *gorm.DB
	InitMigrate() error

	IBookRepository
	IOrderRepository
	IUserRepository
	ICartRepository
	IWishlistRepository
	IContentRepository
}

type IBookRepository interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBookByID(ctx context.Context, bookID uint) (*model.Book, error)
	GetBooksByIDs(ctx context.Context, bookIDs []uint) ([]model.Book, error)
	GetBooksPaginated(ctx context.Context, page, pageSize int, search string) ([]model.Book, int64, error)
	UpdateBook(ctx context.Context, book *model.Book) error
	AddBookStock(ctx context.Context, bookID uint, quantity int) error
	DeleteBook(ctx context.Context, bookID uint) error
}

type IOrderRepository interface {
	CreateOrderWithInventory(ctx context.Context, order *model.Order, clearCartUserID *uint) (*model.Order, bool, error)
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
	GetOrderByPaymentID(ctx context.Context, paymentID string) (*model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error)
	GetOrdersPaginated(ctx context.Context, page, pageSize int) ([]model.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
	MarkOrderPaid(ctx context.Context, id string, paymentStatus string, paidAt time.Time) error
	UpdateOrderTracking(ctx context.Context, id string, label *model.Label) error
}

type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	CreatePasswordResetToken(ctx context.Context, token *model.PasswordResetToken) error
	ConsumePasswordResetToken(ctx context.Context, token string) (*model.PasswordResetToken, error)
}

type ICartRepository interface {
	GetCartItems(ctx context.Context, userID uint) ([]model.CartItem, error)
	UpsertCartItem(ctx context.Context, item *model.CartItem) error
	DeleteCartItem(ctx context.Context, userID, bookID uint) error
	ClearCart(ctx context.Context, userID uint) error
}

type IWishlistRepository interface {
	GetWishlistItems(ctx context.Context, userID uint) ([]model.WishlistItem, error)
	AddWishlistItem(ctx context.Context, item *model.WishlistItem) error
	DeleteWishlistItem(ctx context.Context, userID, bookID uint) error
}

type IContentRepository interface {
	GetPage(ctx context.Context, slug string) (*model.ContentPage, error)
	UpsertPage(ctx context.Context, page *model.ContentPage) error
	UpdatePageImage(ctx context.Context, slug, imageURL string) error
}

// UnifiedDBImpl 統一資料庫實現
type UnifiedDBImpl struct {
	db    *gorm.DB
	dbDao *DbDao
	*BookRepo
	*OrderRepo
	*UserRepo
	*CartRepo
	*WishlistRepo
	*ContentRepo
}

func NewUnifiedDB(db *gorm.DB) *UnifiedDBImpl {
	dbDao := NewDbDao(db)
	return &UnifiedDBImpl{
		db:           db,
		dbDao:        dbDao,
		BookRepo:     NewBookRepo(dbDao),
		OrderRepo:    NewOrderRepo(dbDao),
		UserRepo:     NewUserRepo(dbDao),
		CartRepo:     NewCartRepo(dbDao),
		WishlistRepo: NewWishlistRepo(dbDao),
		ContentRepo:  NewContentRepo(dbDao),
	}
}

func (u *UnifiedDBImpl) InitMigrate() error {
	return u.dbDao.InitMigrate()
}

// GetDB 獲取資料庫連接
func (u *UnifiedDBImpl) GetDB() *gorm.DB {
	return u.db
}

var _ UnifiedDB = (*UnifiedDBImpl)(nil)
