package appcontext

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/config"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/auth/google_auth"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/auth/token"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/mail"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/payment"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/producer"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/redis_repo"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/shipping"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/pkg/cache"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/pkg/limiter"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/service"
)

// 報價端點的限流參數, 每IP每分鐘
const quoteRateLimit = 30

type ApplicationContext struct {
	Cf     *config.Config
	Logger *zerolog.Logger

	DbConn        *gorm.DB
	DbDao         db.UnifiedDB
	RedisClient   *redis.Client
	TokenMaker    token.Maker[uint]
	QuoteLimiter  limiter.ILimiter
	EventProducer producer.IOrderEventProducer

	AuthService     service.IAuthService
	BookService     service.IBookService
	CartService     service.ICartService
	WishlistService service.IWishlistService
	ContentService  service.IContentService
	ShippingService service.IShippingService
	OrderService    service.IOrderService
	PaymentService  service.IPaymentService
	MailService     service.IMailService
}

func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf: cf,
	}
	err := app.Init()
	if err != nil {
		return nil, err
	}

	return &app, nil
}

func (app *ApplicationContext) Init() error {
	app.setUpLogger()

	err := app.setUpDb()
	if err != nil {
		return err
	}

	app.setUpRedis()
	app.setUpEventProducer()
	app.setUpMailService()

	err = app.setUpTokenMaker()
	if err != nil {
		return err
	}

	app.setUpAuthService()
	app.setUpCatalogServices()
	app.setUpShippingService()
	app.setUpOrderAndPaymentService()

	return nil
}

func (app *ApplicationContext) setUpLogger() {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("module", app.Cf.ModulerName).
		Logger()
	app.Logger = &logger
}

func (app *ApplicationContext) setUpDb() error {
	log.Printf("Start setup database connection")
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	app.DbConn = conn

	dao := db.NewUnifiedDB(conn)
	if err := dao.InitMigrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	app.DbDao = dao
	log.Printf("Finish setup database connection")
	return nil
}

func (app *ApplicationContext) setUpRedis() {
	log.Printf("Start setup redis")
	app.RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", app.Cf.RedisHost, app.Cf.RedisPort),
		Password: app.Cf.RedisPas,
	})
	app.QuoteLimiter = limiter.NewSlideWindowLimiter(
		app.RedisClient, app.Cf.ModulerName+":quote", quoteRateLimit, time.Minute)
	log.Printf("Finish setup redis")
}

func (app *ApplicationContext) setUpEventProducer() {
	if app.Cf.KafkaBrokers == "" {
		return
	}
	log.Printf("Start setup kafka producer")
	brokers := strings.Split(app.Cf.KafkaBrokers, ",")
	topic := app.Cf.OrderEventTopic
	if topic == "" {
		topic = "order-events"
	}
	app.EventProducer = producer.NewOrderEventProducer(brokers, topic)
	log.Printf("Finish setup kafka producer")
}

func (app *ApplicationContext) setUpMailService() {
	log.Printf("Start setup mail service")
	sender := mail.NewSMTPSender(
		app.Cf.EmailSender, app.Cf.EmailAccount, app.Cf.SmtpAuthKey, app.Cf.SmtpHost, app.Cf.SmtpPort)
	app.MailService = service.NewMailService(sender, app.Cf.ModulerName)
	log.Printf("Finish setup mail service")
}

func (app *ApplicationContext) setUpTokenMaker() error {
	log.Printf("Start setup token maker")
	tokenMaker, err := token.NewJWTMaker[uint](app.Cf.AuthTokenKey)
	if err != nil {
		return fmt.Errorf("create token maker: %w", err)
	}
	app.TokenMaker = tokenMaker
	log.Printf("Finish setup token maker")
	return nil
}

func (app *ApplicationContext) setUpAuthService() {
	log.Printf("Start setup auth service")
	sessionRepo := redis_repo.NewSessionRepo(app.RedisClient, app.Cf.ModulerName)
	verifier := google_auth.NewGoogleAuthVerifier(app.Cf.GoogleClientID)
	app.AuthService = service.NewAuthService(
		app.DbDao, sessionRepo, app.MailService, app.TokenMaker, verifier, app.Cf.FrontendURL, app.Logger)
	log.Printf("Finish setup auth service")
}

func (app *ApplicationContext) setUpCatalogServices() {
	log.Printf("Start setup catalog services")
	app.BookService = service.NewBookService(app.DbDao)
	app.CartService = service.NewCartService(app.DbDao)
	app.WishlistService = service.NewWishlistService(app.DbDao)
	app.ContentService = service.NewContentService(app.DbDao, app.Cf.AssetDir)
	log.Printf("Finish setup catalog services")
}

func (app *ApplicationContext) setUpShippingService() {
	log.Printf("Start setup shipping service")
	sendcloud := shipping.NewSendcloudClient(app.Cf.SendcloudPublicKey, app.Cf.SendcloudSecretKey)
	shippo := shipping.NewShippoClient(app.Cf.ShippoToken)

	app.ShippingService = service.NewShippingService(
		service.NewParcelEstimator(),
		sendcloud,
		shippo,
		cache.New[[]model.Rate](constants.RateCacheCapacity, constants.MethodCacheTTL),
		cache.New[service.QuoteResult](constants.RateCacheCapacity, constants.QuoteCacheTTL),
		app.Cf.Carriers(),
		shipping.Address{
			Name:       app.Cf.ModulerName,
			Street:     app.Cf.SenderStreet,
			City:       app.Cf.SenderCity,
			PostalCode: app.Cf.SenderPostalCode,
			Country:    app.Cf.SenderCountry,
			Email:      app.Cf.EmailAccount,
		},
		app.Logger,
	)
	log.Printf("Finish setup shipping service")
}

func (app *ApplicationContext) setUpOrderAndPaymentService() {
	log.Printf("Start setup order and payment service")
	stripeClient := payment.NewStripeClient(app.Cf.StripeSecretKey)

	app.OrderService = service.NewOrderService(
		app.DbDao, app.ShippingService, app.MailService, stripeClient, app.EventProducer, app.Logger)
	app.PaymentService = service.NewPaymentService(
		app.DbDao, stripeClient, app.OrderService, app.Cf.StripeWebhookSecret, app.Logger)
	log.Printf("Finish setup order and payment service")
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	log.Printf("Start application shutdown")

	done := make(chan error)
	go func() {
		defer close(done)

		if app.EventProducer != nil {
			log.Printf("Closing kafka producer...")
			if err := app.EventProducer.Close(); err != nil {
				//有錯誤不結束流程
				log.Printf("kafka producer shutdown error: %v", err)
			}
		}

		if app.RedisClient != nil {
			log.Printf("Closing redis connection...")
			if err := app.RedisClient.Close(); err != nil {
				log.Printf("redis shutdown error: %v", err)
			}
		}

		if app.DbConn != nil {
			log.Printf("Closing database connection...")
			if sqlDB, err := app.DbConn.DB(); err == nil {
				sqlDB.Close()
			}
		}

		log.Printf("Application shutdown complete")
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %v", ctx.Err())
	}
}
