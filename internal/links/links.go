// Package links builds the public URLs embedded in review request messages.
package links

import "net/url"

// GenerateTrackingURL concatenates without normalizing, so a base ending in
// "/" yields a double slash.
func GenerateTrackingURL(baseURL, reviewRequestID string) string {
	return baseURL + "/r/" + reviewRequestID
}

func GenerateUnsubscribeURL(baseURL, reviewRequestID string) string {
	return baseURL + "/r/unsubscribe/" + reviewRequestID
}

// GoogleReviewURL opens the write-a-review dialog of a Google place.
func GoogleReviewURL(placeID string) string {
	return "https://search.google.com/local/writereview?placeid=" + url.QueryEscape(placeID)
}
