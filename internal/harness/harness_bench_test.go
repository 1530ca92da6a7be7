package harness

import (
	"strings"
	"testing"
)

// BenchmarkRemote_Classify benchmarks marker scanning on a large error page.
func BenchmarkRemote_Classify(b *testing.B) {
	r := &Remote{markers: DefaultMarkers()}
	body := strings.Repeat("<div class=\"trace\">app/models/user.rb:12</div>\n", 2000) +
		"<h1>ActiveRecord::RecordNotFound in UsersController#show</h1>"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.classify(404, body)
	}
}
