package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/utils"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/vacaciones"
)

func (h *Handler) CrearUsuario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username     string `json:"username" validate:"required"`
		FullName     string `json:"fullName" validate:"required"`
		Email        string `json:"email" validate:"required,email"`
		Role         string `json:"role" validate:"required,oneof=Empleado JefeArea Administrador SuperUsuario"`
		Nomina       *int64 `json:"nomina"`
		AreaID       *int64 `json:"areaID"`
		GrupoID      *int64 `json:"grupoID"`
		FechaIngreso string `json:"fechaIngreso" validate:"omitempty,datetime=2006-01-02"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	existe, err := h.repository.ExisteEmail(r.Context(), req.Email)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if existe {
		h.errorResponse(w, r, "el correo ya está registrado")
		return
	}

	// La contraseña inicial se genera y se envía por correo; el empleado la
	// cambia en su primer inicio de sesión.
	password := utils.GenerarPassword(12)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
		Nomina:       req.Nomina,
		AreaID:       req.AreaID,
		GrupoID:      req.GrupoID,
	}
	if req.FechaIngreso != "" {
		ingreso, _ := time.Parse(time.DateOnly, req.FechaIngreso)
		user.FechaIngreso = &ingreso
	}

	if err := h.repository.CrearUsuario(r.Context(), user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	evento := domain.NuevoEvento(
		domain.EventoCodigoVerificacion,
		user.ID,
		user.Email,
		user.FullName,
		"Tu cuenta fue creada",
		fmt.Sprintf("Tu usuario es %s y tu contraseña inicial es %s. Cámbiala al iniciar sesión.", user.Username, password),
		nil,
	)
	if err := h.servicios.Publicador.Publicar(r.Context(), evento); err != nil {
		h.logInternalServerError(r, err)
	}

	h.successResponse(w, r, "usuario creado", user)
}

func (h *Handler) GetUsuario(w http.ResponseWriter, r *http.Request) {
	empleado := r.Context().Value(EmpleadoCtx).(*domain.User)
	h.successResponse(w, r, "usuario obtenido", empleado)
}

func (h *Handler) ActualizarUsuario(w http.ResponseWriter, r *http.Request) {
	empleado := r.Context().Value(EmpleadoCtx).(*domain.User)

	var req struct {
		Email        *string `json:"email" validate:"omitempty,email"`
		Role         *string `json:"role" validate:"omitempty,oneof=Empleado JefeArea Administrador SuperUsuario"`
		Nomina       *int64  `json:"nomina"`
		AreaID       *int64  `json:"areaID"`
		GrupoID      *int64  `json:"grupoID"`
		FechaIngreso *string `json:"fechaIngreso" validate:"omitempty,datetime=2006-01-02"`
		IsActive     *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Email != nil {
		empleado.Email = *req.Email
	}
	if req.Role != nil {
		empleado.Role = domain.Role(*req.Role)
	}
	if req.Nomina != nil {
		empleado.Nomina = req.Nomina
	}
	if req.AreaID != nil {
		empleado.AreaID = req.AreaID
	}
	if req.GrupoID != nil {
		empleado.GrupoID = req.GrupoID
	}
	if req.FechaIngreso != nil {
		ingreso, _ := time.Parse(time.DateOnly, *req.FechaIngreso)
		empleado.FechaIngreso = &ingreso
	}
	if req.IsActive != nil {
		empleado.IsActive = *req.IsActive
	}

	if err := h.repository.ActualizarUsuario(r.Context(), empleado); err != nil {
		h.errorResponse(w, r, "el usuario cambió mientras se editaba, intenta de nuevo")
		return
	}

	h.successResponse(w, r, "usuario actualizado", empleado)
}

func (h *Handler) GetAuditoria(w http.ResponseWriter, r *http.Request) {
	empleado := r.Context().Value(EmpleadoCtx).(*domain.User)

	registros, err := h.repository.ConsultarAuditoria(r.Context(), empleado.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "auditoría obtenida", registros)
}

func (h *Handler) GetGrupos(w http.ResponseWriter, r *http.Request) {
	var areaID *int64
	if param := r.URL.Query().Get("areaID"); param != "" {
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "el parámetro areaID es inválido")
			return
		}
		areaID = &id
	}

	grupos, err := h.repository.Grupos(r.Context(), areaID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "grupos obtenidos", grupos)
}

func (h *Handler) GetDiasInhabiles(w http.ResponseWriter, r *http.Request) {
	anio, err := h.anioParam(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	dias, err := h.repository.ListaDiasInhabiles(r.Context(), anio)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "días inhábiles obtenidos", dias)
}

func (h *Handler) GetDerechosVacaciones(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "tabla de derechos obtenida", vacaciones.Tabla())
}
