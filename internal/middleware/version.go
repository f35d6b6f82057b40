package middleware

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// VersionMiddleware rejects requests for API versions this server does not
// speak and stamps responses with the version that served them.
type VersionMiddleware struct {
	supported map[string]bool
}

// NewVersionMiddleware creates the middleware for the given set of
// supported versions, e.g. "v1".
func NewVersionMiddleware(versions ...string) *VersionMiddleware {
	supported := make(map[string]bool, len(versions))
	for _, v := range versions {
		supported[v] = true
	}
	return &VersionMiddleware{supported: supported}
}

// APIVersionResolver rejects paths carrying an unsupported /vN prefix
// before they reach the router. Unversioned paths such as the health
// probes pass through untouched.
func (vm *VersionMiddleware) APIVersionResolver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			version := pathVersion(c.Request().URL.Path)
			if version != "" && !vm.supported[version] {
				return c.JSON(http.StatusNotFound, map[string]string{
					"error":              "Unsupported API version",
					"supported_versions": strings.Join(vm.versionList(), ", "),
				})
			}
			return next(c)
		}
	}
}

// VersionHeader stamps every response in a route group with the API
// version that served it.
func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			return next(c)
		}
	}
}

func (vm *VersionMiddleware) versionList() []string {
	versions := make([]string, 0, len(vm.supported))
	for v := range vm.supported {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// pathVersion extracts a version prefix like "v1" from a request path.
// It returns "" when the first path segment is not of the form /vN.
func pathVersion(path string) string {
	if !strings.HasPrefix(path, "/v") {
		return ""
	}
	segment := path[2:]
	if i := strings.IndexByte(segment, '/'); i >= 0 {
		segment = segment[:i]
	}
	n, err := strconv.Atoi(segment)
	if err != nil || n <= 0 {
		return ""
	}
	return "v" + segment
}
