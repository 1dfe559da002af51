package constants

type contextKey string

const (
	SessionCookieName = "session_id"
	CSRFCookieName    = "csrf_token"
	CSRFHeaderName    = "X-CSRF-Token"
)

const (
	RouteHome            = "/"
	RouteState           = "/state"
	RouteStart           = "/start"
	RouteAnswer          = "/answer"
	RouteAdvance         = "/advance"
	RouteSwitchDirection = "/switch-direction"
	RouteReload          = "/reload"
	RouteRankedStart     = "/ranked/start"
	RouteRankedState     = "/ranked/state"
	RouteRankedAnswer    = "/ranked/answer"
	RouteRankedAdvance   = "/ranked/advance"
	RouteHealthz         = "/healthz"
)

const (
	ErrorCodeNoDictionary    = "dictionary_unavailable"
	ErrorCodeNoQuestion      = "no_question"
	ErrorCodeNoRankedSession = "no_ranked_session"
	ErrorCodeDirectionLocked = "direction_locked"
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeReloadFailed    = "reload_failed"
)

const (
	RequestIDKey contextKey = "request_id"
)
