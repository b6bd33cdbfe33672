package gateway

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Yusufzhafir/go-exchange/internal/gateway/middleware"
	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

type OrderRouter interface {
	Place(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	CancelAll(w http.ResponseWriter, r *http.Request)
	OpenOrders(w http.ResponseWriter, r *http.Request)
	Depth(w http.ResponseWriter, r *http.Request)
}

type orderRouterImpl struct {
	client *EngineClient
}

func NewOrderRouter(client *EngineClient) OrderRouter {
	return &orderRouterImpl{client: client}
}

// writeReply maps the engine envelope onto HTTP: rejected requests become
// 422 with the engine's error code, everything else passes through as 200.
func writeReply(w http.ResponseWriter, reply *model.RawReply, err error) {
	if errors.Is(err, ErrEngineTimeout) {
		writeJSONError(w, http.StatusGatewayTimeout, err)
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	if reply.Error != nil {
		writeJSON(w, http.StatusUnprocessableEntity, reply)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (or *orderRouterImpl) Place(w http.ResponseWriter, r *http.Request) {
	type PlaceOrderRequest struct {
		Market    string          `json:"market"`
		Side      model.Side      `json:"side"`
		OrderType model.OrderType `json:"order_type"`
		Price     decimal.Decimal `json:"price"`
		Quantity  decimal.Decimal `json:"quantity"`
	}

	req, err := decodeJSON[PlaceOrderRequest](w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	if req.Market == "" {
		writeJSONError(w, http.StatusBadRequest, errors.New("market is required"))
		return
	}
	if !req.Quantity.IsPositive() {
		writeJSONError(w, http.StatusBadRequest, errors.New("quantity must be > 0"))
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, errors.New("missing claims"))
		return
	}

	reply, err := or.client.SendOrder(r.Context(), model.MessageFromAPI{
		Kind: model.MessageCreateOrder,
		CreateOrder: &model.CreateOrderPayload{
			ID:        uuid.NewString(),
			UserID:    claims.UserID,
			Side:      req.Side,
			Market:    req.Market,
			OrderType: req.OrderType,
			Price:     req.Price,
			Quantity:  req.Quantity,
		},
	})
	writeReply(w, reply, err)
}

func (or *orderRouterImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	type CancelOrderRequest struct {
		Market  string `json:"market"`
		OrderID string `json:"order_id"`
	}

	req, err := decodeJSON[CancelOrderRequest](w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	if req.Market == "" || req.OrderID == "" {
		writeJSONError(w, http.StatusBadRequest, errors.New("market and order_id are required"))
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, errors.New("missing claims"))
		return
	}

	reply, err := or.client.SendOrder(r.Context(), model.MessageFromAPI{
		Kind: model.MessageCancelOrder,
		CancelOrder: &model.CancelOrderPayload{
			Market:  req.Market,
			OrderID: req.OrderID,
			UserID:  claims.UserID,
		},
	})
	writeReply(w, reply, err)
}

func (or *orderRouterImpl) CancelAll(w http.ResponseWriter, r *http.Request) {
	type CancelAllRequest struct {
		Market string `json:"market"`
	}

	req, err := decodeJSON[CancelAllRequest](w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	if req.Market == "" {
		writeJSONError(w, http.StatusBadRequest, errors.New("market is required"))
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, errors.New("missing claims"))
		return
	}

	reply, err := or.client.SendOrder(r.Context(), model.MessageFromAPI{
		Kind: model.MessageCancelAllOrders,
		CancelAllOrders: &model.CancelAllOrdersPayload{
			Market: req.Market,
			UserID: claims.UserID,
		},
	})
	writeReply(w, reply, err)
}

func (or *orderRouterImpl) OpenOrders(w http.ResponseWriter, r *http.Request) {
	market := r.URL.Query().Get("market")
	if market == "" {
		writeJSONError(w, http.StatusBadRequest, errors.New("market query param is required"))
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, errors.New("missing claims"))
		return
	}

	reply, err := or.client.SendOrder(r.Context(), model.MessageFromAPI{
		Kind: model.MessageGetAllOpenOrders,
		GetAllOpenOrders: &model.OpenOrdersPayload{
			Market: market,
			UserID: claims.UserID,
		},
	})
	writeReply(w, reply, err)
}

func (or *orderRouterImpl) Depth(w http.ResponseWriter, r *http.Request) {
	market := r.URL.Query().Get("market")
	if market == "" {
		writeJSONError(w, http.StatusBadRequest, errors.New("market query param is required"))
		return
	}

	reply, err := or.client.SendOrder(r.Context(), model.MessageFromAPI{
		Kind:     model.MessageGetDepth,
		GetDepth: &model.GetDepthPayload{Market: market},
	})
	writeReply(w, reply, err)
}
