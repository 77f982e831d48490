package settings

import (
	"net/url"
	"time"

	"github.com/ordishs/gocore"
)

func getString(key, defaultValue string) string {
	value, found := gocore.Config().Get(key)
	if !found {
		return defaultValue
	}

	return value
}

func getInt(key string, defaultValue int) int {
	value, found := gocore.Config().GetInt(key)
	if !found {
		return defaultValue
	}

	return value
}

func getFloat64(key string, defaultValue float64) float64 {
	value, found := gocore.Config().GetFloat64(key, defaultValue)
	if !found {
		return defaultValue
	}

	return value
}

func getURL(key, defaultValue string) *url.URL {
	value, _, _ := gocore.Config().GetURL(key, defaultValue)

	return value
}

func getBool(key string, defaultValue bool) bool {
	return gocore.Config().GetBool(key, defaultValue)
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err, found := gocore.Config().GetDuration(key, defaultValue)
	if err != nil || !found {
		return defaultValue
	}

	return value
}
