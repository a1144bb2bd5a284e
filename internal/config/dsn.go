package config

import (
	"net"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

// DSNValue is the go-sql-driver/mysql DSN. An explicit dsn or url wins;
// otherwise one is formatted from the discrete fields.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.URL); v != "" {
		return v
	}

	dc := mysqlDriver.NewConfig()
	dc.Net = "tcp"
	dc.User = firstNonEmpty(c.User, c.Username, defaultDBUser)
	dc.Passwd = strings.TrimSpace(c.Password)
	dc.DBName = firstNonEmpty(c.Name, c.DBName, defaultDBName)
	dc.ParseTime = c.ParseTime

	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}
	dc.Addr = net.JoinHostPort(firstNonEmpty(c.Host, defaultDBHost), strconv.Itoa(port))

	dc.Params = map[string]string{}
	for key, value := range c.Params {
		k, v := strings.TrimSpace(key), strings.TrimSpace(value)
		if k == "" || v == "" {
			continue
		}
		switch k {
		case "loc":
			c.Loc = v
		case "parseTime":
			dc.ParseTime, _ = strconv.ParseBool(v)
		default:
			dc.Params[k] = v
		}
	}
	if _, ok := dc.Params["charset"]; !ok {
		dc.Params["charset"] = firstNonEmpty(c.Charset, defaultDBCharset)
	}
	dc.Loc = time.Local
	if loc, err := time.LoadLocation(firstNonEmpty(c.Loc, defaultDBLoc)); err == nil {
		dc.Loc = loc
	}
	return dc.FormatDSN()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultRedisHost
	}
	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}
	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}

	scheme := strings.ToLower(strings.TrimSpace(c.Scheme))
	if scheme == "" {
		if c.TLS {
			scheme = "rediss"
		} else {
			scheme = "redis"
		}
	}
	if scheme != "redis" && scheme != "rediss" {
		scheme = "redis"
	}

	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(db),
	}
	username := strings.TrimSpace(c.Username)
	password := strings.TrimSpace(c.Password)
	if username != "" {
		if password != "" {
			u.User = neturl.UserPassword(username, password)
		} else {
			u.User = neturl.User(username)
		}
	} else if password != "" {
		u.User = neturl.UserPassword("", password)
	}

	if len(c.Params) > 0 {
		query := neturl.Values{}
		for key, value := range c.Params {
			k := strings.TrimSpace(key)
			v := strings.TrimSpace(value)
			if k != "" && v != "" {
				query.Set(k, v)
			}
		}
		if len(query) > 0 {
			u.RawQuery = query.Encode()
		}
	}

	return u.String()
}

// MongoDatabaseName returns MongoDB, falling back to the database named in
// the URI path.
func (c DatabaseRuntimeConfig) MongoDatabaseName() string {
	if c.MongoDB != "" && c.MongoDB != defaultMongoDB {
		return c.MongoDB
	}
	if u, err := neturl.Parse(c.MongoURI); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	if c.MongoDB != "" {
		return c.MongoDB
	}
	return defaultMongoDB
}
