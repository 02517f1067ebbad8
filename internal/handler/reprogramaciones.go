package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

func (h *Handler) SolicitarReprogramacion(w http.ResponseWriter, r *http.Request) {
	perfil := r.Context().Value(MiPerfilCtx).(*domain.User)

	var req struct {
		VacacionID int64  `json:"vacacionID" validate:"required"`
		FechaNueva string `json:"fechaNueva" validate:"required,datetime=2006-01-02"`
		Motivo     string `json:"motivo" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	fechaNueva, _ := time.Parse(time.DateOnly, req.FechaNueva)

	solicitud, err := h.servicios.Reprogramacion.Solicitar(r.Context(), perfil.ID, req.VacacionID, fechaNueva, req.Motivo)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.successResponse(w, r, "solicitud registrada", solicitud)
}

func (h *Handler) GetReprogramaciones(w http.ResponseWriter, r *http.Request) {
	estado := domain.EstadoSolicitud(r.URL.Query().Get("estado"))
	switch estado {
	case "", domain.SolicitudSolicitada, domain.SolicitudAprobada, domain.SolicitudRechazada:
	default:
		h.errorResponse(w, r, "el parámetro estado es inválido")
		return
	}

	solicitudes, err := h.repository.Solicitudes(r.Context(), estado)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "solicitudes obtenidas", solicitudes)
}

// DecidirReprogramacion aprueba o rechaza una solicitud. La aprobación es un
// intercambio atómico de fechas; el rechazo exige motivo y no toca el
// calendario.
func (h *Handler) DecidirReprogramacion(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	solicitudID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "ID de solicitud inválido")
		return
	}

	var req struct {
		Aprobar bool   `json:"aprobar"`
		Motivo  string `json:"motivo"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	operador, err := h.operadorID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if req.Aprobar {
		err = h.servicios.Reprogramacion.Aprobar(r.Context(), solicitudID, operador)
	} else {
		err = h.servicios.Reprogramacion.Rechazar(r.Context(), solicitudID, operador, req.Motivo)
	}
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	msg := "solicitud rechazada"
	if req.Aprobar {
		msg = "solicitud aprobada"
	}
	h.successResponse(w, r, msg, nil)
}
