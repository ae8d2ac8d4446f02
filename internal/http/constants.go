package http

const (
	KeyHeaderContentType       = "Content-Type"
	KeyHeaderRequestID         = "X-Request-Id"
	KeyHeaderAuthorization     = "Authorization"
	ValueHeaderApplicationJson = "application/json"
	ValueHeaderXlsx            = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
