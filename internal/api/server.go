package api

import "github.com/neilconnor2003/englischbuecher-sub001/internal/api/handler"

type Server struct {
	AuthHandler     *handler.AuthHandler
	BookHandler     *handler.BookHandler
	CartHandler     *handler.CartHandler
	ShippingHandler *handler.ShippingHandler
	PaymentHandler  *handler.PaymentHandler
	OrderHandler    *handler.OrderHandler
	ContentHandler  *handler.ContentHandler
}

func NewServer(
	authHandler *handler.AuthHandler,
	bookHandler *handler.BookHandler,
	cartHandler *handler.CartHandler,
	shippingHandler *handler.ShippingHandler,
	paymentHandler *handler.PaymentHandler,
	orderHandler *handler.OrderHandler,
	contentHandler *handler.ContentHandler,
) *Server {
	return &Server{
		AuthHandler:     authHandler,
		BookHandler:     bookHandler,
		CartHandler:     cartHandler,
		ShippingHandler: shippingHandler,
		PaymentHandler:  paymentHandler,
		OrderHandler:    orderHandler,
		ContentHandler:  contentHandler,
	}
}
