package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

// respondErr separa los rechazos de negocio, que viajan al cliente tal cual,
// de las fallas de sistema.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	if negocio, ok := domain.EsErrorNegocio(err); ok {
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: negocio.Mensaje,
			Data:    map[string]string{"codigo": negocio.Codigo},
		})
		return
	}
	if errors.Is(err, domain.ErrConflictoConcurrencia) {
		h.errorResponse(w, r, err.Error())
		return
	}
	h.internalServerError(w, r, err)
}

func (h *Handler) SeleccionarDia(w http.ResponseWriter, r *http.Request) {
	perfil := r.Context().Value(MiPerfilCtx).(*domain.User)

	var req struct {
		Fecha string `json:"fecha" validate:"required,datetime=2006-01-02"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	fecha, _ := time.Parse(time.DateOnly, req.Fecha)

	resultado, err := h.servicios.Reservas.SeleccionarDia(r.Context(), perfil.ID, fecha)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	msg := "día reservado"
	if resultado.Advertencia {
		msg = "día reservado; el grupo queda cerca del porcentaje máximo de ausencia"
	}
	h.successResponse(w, r, msg, resultado)
}

func (h *Handler) CancelarDia(w http.ResponseWriter, r *http.Request) {
	perfil := r.Context().Value(MiPerfilCtx).(*domain.User)

	var req struct {
		Fecha string `json:"fecha" validate:"required,datetime=2006-01-02"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	fecha, _ := time.Parse(time.DateOnly, req.Fecha)

	if err := h.servicios.Reservas.CancelarDia(r.Context(), perfil.ID, fecha); err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.successResponse(w, r, "día cancelado y saldo restaurado", nil)
}

func (h *Handler) CompletarReservacion(w http.ResponseWriter, r *http.Request) {
	perfil := r.Context().Value(MiPerfilCtx).(*domain.User)

	anio, err := h.anioParam(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.servicios.Reservas.CompletarReservacion(r.Context(), perfil.ID, anio); err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.successResponse(w, r, "reservación completada", nil)
}
