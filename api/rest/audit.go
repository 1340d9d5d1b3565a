package rest

import (
	"strconv"

	"github.com/arenaforge/gameapi/audit"
	mw "github.com/arenaforge/gameapi/middleware"
	"github.com/gin-gonic/gin"
)

// Auditor records privileged operations. *audit.Service implements it.
type Auditor interface {
	Log(e audit.Entry)
}

type nopAuditor struct{}

func (nopAuditor) Log(audit.Entry) {}

func record(a Auditor, c *gin.Context, action, target string, req interface{}, err error) {
	a.Log(audit.Entry{
		TraceID: mw.GetTraceID(c),
		ActorID: mw.CurrentUserID(c),
		Action:  action,
		Target:  target,
		Request: req,
		Err:     err,
		IP:      c.ClientIP(),
	})
}

func target(kind string, id int64) string {
	return kind + ":" + strconv.FormatInt(id, 10)
}
