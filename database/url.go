package database

import (
	"net/url"
	"strings"
)

// ConstructDatabaseURL joins a server URL and a database name into a connection URL.
// sslmode=disable is appended unless the URL already names an sslmode.
// URLs that fail to parse are returned unchanged so pgx reports the error.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return baseURL
	}

	u.Path = "/" + databaseName

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()

	return u.String()
}
