package handler

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/domain"
	"github.com/tiempo-libre-dev/vacation-manager/backend/internal/turnos"
)

func (h *Handler) GetReglas(w http.ResponseWriter, r *http.Request) {
	codigos := h.servicios.Registro.Codigos()
	slices.Sort(codigos)

	h.successResponse(w, r, "reglas obtenidas", codigos)
}

// GetRol devuelve un ciclo completo del patrón para un rol combinado, por
// ejemplo "R0144_04". Es una vista derivada de la regla, nunca estado aparte.
func (h *Handler) GetRol(w http.ResponseWriter, r *http.Request) {
	codigo, numero, err := turnos.ParseRolGrupo(chi.URLParam(r, "rolGrupo"))
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}
	if !h.servicios.Registro.Existe(codigo) {
		h.errorResponse(w, r, "la regla de turnos no está cargada")
		return
	}

	h.successResponse(w, r, "rol generado", map[string]any{
		"regla":       codigo,
		"numeroGrupo": numero,
		"rol":         h.servicios.Registro.CrearRol(codigo, numero),
	})
}

// GetRolDeGrupo devuelve el rol vigente del grupo según su regla registrada.
func (h *Handler) GetRolDeGrupo(w http.ResponseWriter, r *http.Request) {
	grupo := r.Context().Value(GrupoCtx).(*domain.GrupoTrabajo)

	if !h.servicios.Registro.Existe(grupo.ReglaCodigo) {
		h.errorResponse(w, r, "la regla de turnos del grupo no está cargada")
		return
	}

	h.successResponse(w, r, "rol generado", map[string]any{
		"regla":       grupo.ReglaCodigo,
		"numeroGrupo": grupo.NumeroGrupo,
		"rol":         h.servicios.Registro.CrearRol(grupo.ReglaCodigo, grupo.NumeroGrupo),
	})
}
