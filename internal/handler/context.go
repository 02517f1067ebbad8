package handler

type ContextKey string

var (
	RoleCtxKey  ContextKey = "role"
	SubCtxKey   ContextKey = "sub"
	MiPerfilCtx ContextKey = "miPerfil"
	EmpleadoCtx ContextKey = "empleado"
	GrupoCtx    ContextKey = "grupo"
)
