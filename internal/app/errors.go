package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/codenestai/client/internal/api"
)

var errNotSignedIn = errors.New("not signed in; run `codenest login` first")

// Describe renders err for a terminal user.
func Describe(err error) string {
	switch api.KindOf(err) {
	case api.KindNone:
		return ""
	case api.KindUnauthorized:
		return api.SessionExpiredMessage + "; run `codenest login` to sign in again"
	case api.KindApplication:
		var apiErr *api.Error
		errors.As(err, &apiErr)
		if detail := apiErr.Detail(); detail != "" {
			return fmt.Sprintf("%d %s: %s", apiErr.Status, http.StatusText(apiErr.Status), detail)
		}
		return fmt.Sprintf("%d %s", apiErr.Status, http.StatusText(apiErr.Status))
	default:
		return err.Error()
	}
}
