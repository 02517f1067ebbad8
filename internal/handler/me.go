package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/vacaciones"
)

func (h *Handler) GetMiPerfil(w http.ResponseWriter, r *http.Request) {
	perfil := r.Context().Value(MiPerfilCtx).(*domain.User)
	h.successResponse(w, r, "perfil obtenido", perfil)
}

func (h *Handler) ActualizarMiPassword(w http.ResponseWriter, r *http.Request) {
	perfil := r.Context().Value(MiPerfilCtx).(*domain.User)

	var req struct {
		PasswordActual string `json:"passwordActual" validate:"required"`
		PasswordNueva  string `json:"passwordNueva" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(perfil.PasswordHash), []byte(req.PasswordActual)); err != nil {
		h.errorResponse(w, r, "la contraseña actual es incorrecta")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PasswordNueva), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	perfil.PasswordHash = string(hash)

	if err := h.repository.ActualizarUsuario(r.Context(), perfil); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "contraseña actualizada", nil)
}

// GetMiCalendario devuelve el calendario del empleado entre ?desde y ?hasta
// (AAAA-MM-DD): turno por día según su grupo y las vacaciones activas.
func (h *Handler) GetMiCalendario(w http.ResponseWriter, r *http.Request) {
	perfil := r.Context().Value(MiPerfilCtx).(*domain.User)
	if perfil.GrupoID == nil {
		h.errorResponse(w, r, "el empleado no pertenece a ningún grupo")
		return
	}

	desde, err := time.Parse(time.DateOnly, r.URL.Query().Get("desde"))
	if err != nil {
		h.errorResponse(w, r, "el parámetro desde debe tener formato AAAA-MM-DD")
		return
	}
	hasta, err := time.Parse(time.DateOnly, r.URL.Query().Get("hasta"))
	if err != nil {
		h.errorResponse(w, r, "el parámetro hasta debe tener formato AAAA-MM-DD")
		return
	}
	if hasta.Before(desde) || hasta.Sub(desde) > 400*24*time.Hour {
		h.errorResponse(w, r, "rango de fechas inválido")
		return
	}

	grupo, err := h.repository.Grupo(r.Context(), *perfil.GrupoID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	dias, err := h.repository.VacacionesDelEmpleado(r.Context(), perfil.ID, desde, hasta)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	calendario := vacaciones.Calendario(h.servicios.Registro, grupo, dias, desde, hasta)
	h.successResponse(w, r, "calendario obtenido", calendario)
}

func (h *Handler) GetMiSaldo(w http.ResponseWriter, r *http.Request) {
	perfil := r.Context().Value(MiPerfilCtx).(*domain.User)

	anio, err := h.anioParam(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	saldo, err := h.repository.Saldo(r.Context(), perfil.ID, anio)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "saldo obtenido", saldo)
}

func (h *Handler) GetMiEstadoReserva(w http.ResponseWriter, r *http.Request) {
	perfil := r.Context().Value(MiPerfilCtx).(*domain.User)

	anio, err := h.anioParam(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	estado, err := h.servicios.Reservas.Estado(r.Context(), perfil.ID, anio)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "estado de reserva obtenido", map[string]any{"estado": estado})
}

// anioParam lee ?anio; por omisión el año siguiente, que es el año objetivo de
// los ciclos de reservación.
func (h *Handler) anioParam(r *http.Request) (int, error) {
	param := r.URL.Query().Get("anio")
	if param == "" {
		return time.Now().Year() + 1, nil
	}
	anio, err := strconv.Atoi(param)
	if err != nil || anio < 2000 || anio > 2200 {
		return 0, errors.New("el parámetro anio es inválido")
	}
	return anio, nil
}
