package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/kvittoapp/kvitto/apiserver/internal/lib/restmachinery"
	receiptsService "github.com/kvittoapp/kvitto/apiserver/internal/receipts"
	"github.com/kvittoapp/kvitto/sdk/receipts"
	"github.com/xeipuuv/gojsonschema"
)

type receiptsEndpoints struct {
	*restmachinery.BaseEndpoints
	receiptSchemaLoader gojsonschema.JSONLoader
	service             receiptsService.Service
}

// NewReceiptsEndpoints returns REST endpoints for managing Receipts.
func NewReceiptsEndpoints(
	baseEndpoints *restmachinery.BaseEndpoints,
	service receiptsService.Service,
) restmachinery.Endpoints {
	return &receiptsEndpoints{
		BaseEndpoints:       baseEndpoints,
		receiptSchemaLoader: gojsonschema.NewBytesLoader(receiptSchemaBytes),
		service:             service,
	}
}

func (r *receiptsEndpoints) Register(router *mux.Router) {
	// Create receipt
	router.HandleFunc(
		"/v2/receipts",
		r.TokenAuthFilter.Decorate(r.create),
	).Methods(http.MethodPost)

	// List receipts
	router.HandleFunc(
		"/v2/receipts",
		r.TokenAuthFilter.Decorate(r.list),
	).Methods(http.MethodGet)

	// Get receipt
	router.HandleFunc(
		"/v2/receipts/{id}",
		r.TokenAuthFilter.Decorate(r.get),
	).Methods(http.MethodGet)
}

func (r *receiptsEndpoints) create(w http.ResponseWriter, req *http.Request) {
	receipt := receipts.Receipt{}
	r.ServeRequest(
		restmachinery.InboundRequest{
			W:                   w,
			R:                   req,
			ReqBodySchemaLoader: r.receiptSchemaLoader,
			ReqBodyObj:          &receipt,
			EndpointLogic: func() (interface{}, error) {
				return r.service.Create(req.Context(), receipt)
			},
			SuccessCode: http.StatusCreated,
		},
	)
}

func (r *receiptsEndpoints) list(w http.ResponseWriter, req *http.Request) {
	r.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: req,
			EndpointLogic: func() (interface{}, error) {
				return r.service.List(req.Context())
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (r *receiptsEndpoints) get(w http.ResponseWriter, req *http.Request) {
	r.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: req,
			EndpointLogic: func() (interface{}, error) {
				return r.service.Get(req.Context(), mux.Vars(req)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}
