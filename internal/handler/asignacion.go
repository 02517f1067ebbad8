package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/asignacion"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
)

// EjecutarAsignacionAutomatica corre el motor para todos los empleados
// sindicalizados del grupo. Es idempotente: repetir la corrida no duplica
// días. Los empleados cuyo cupo no pudo satisfacerse se reportan aparte.
func (h *Handler) EjecutarAsignacionAutomatica(w http.ResponseWriter, r *http.Request) {
	grupo := r.Context().Value(GrupoCtx).(*domain.GrupoTrabajo)

	var req struct {
		Anio int `json:"anio" validate:"required,min=2000,max=2200"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	empleados, err := h.repository.EmpleadosSindicalizados(r.Context(), []int64{grupo.ID})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	resultados := make([]*asignacion.ResultadoEmpleado, 0, len(empleados))
	insatisfechos := make([]int64, 0)
	for _, empleado := range empleados {
		res, err := h.servicios.Motor.AsignarEmpleado(r.Context(), empleado, req.Anio)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrCupoAutomaticoInsatisfecho):
			insatisfechos = append(insatisfechos, empleado.ID)
		default:
			h.internalServerError(w, r, err)
			return
		}
		resultados = append(resultados, res)
	}

	msg := "asignación automática ejecutada"
	if len(insatisfechos) > 0 {
		msg = "asignación automática ejecutada con cupos insatisfechos"
	}
	h.successResponse(w, r, msg, map[string]any{
		"resultados":         resultados,
		"cuposInsatisfechos": insatisfechos,
	})
}

// AsignacionManual brinca la validación de ausencias por orden explícita del
// operador. Exige justificación y queda auditada.
func (h *Handler) AsignacionManual(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmpleadoID    int64  `json:"empleadoID" validate:"required"`
		Fecha         string `json:"fecha" validate:"required,datetime=2006-01-02"`
		Tipo          string `json:"tipo"`
		Justificacion string `json:"justificacion" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	operador, err := h.operadorID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	fecha, _ := time.Parse(time.DateOnly, req.Fecha)

	vacacion, err := h.servicios.Motor.AsignacionManual(r.Context(), asignacion.OrdenManual{
		EmpleadoID:    req.EmpleadoID,
		OperadorID:    operador,
		Fecha:         fecha,
		Tipo:          domain.TipoVacacion(req.Tipo),
		Justificacion: req.Justificacion,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.successResponse(w, r, "día asignado manualmente", vacacion)
}
