package resource

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		want   Class
	}{
		{name: "root document", path: "/", accept: "text/html", want: ClassNavigation},
		{name: "extensionless page", path: "/menu", accept: "*/*", want: ClassNavigation},
		{name: "html file", path: "/checkout.html", accept: "", want: ClassNavigation},
		{name: "api endpoint", path: "/api/menu-items", accept: "application/json", want: ClassAPI},
		{name: "admin api endpoint", path: "/admin/api/orders", accept: "", want: ClassAPI},
		{name: "hashed bundle", path: "/assets/index-BmQ3x.js", accept: "", want: ClassStatic},
		{name: "stylesheet", path: "/assets/app.css", accept: "", want: ClassStatic},
		{name: "web font", path: "/fonts/inter.woff2", accept: "", want: ClassStatic},
		{name: "photo", path: "/images/pizza.webp", accept: "image/webp", want: ClassImage},
		{name: "icon", path: "/favicon.ico", accept: "", want: ClassImage},
		{name: "hero video", path: "/media/hero.mp4", accept: "", want: ClassMedia},
		{name: "vite hmr channel", path: "/@vite/client", accept: "", want: ClassBypass},
		{name: "webpack hot update", path: "/main.abc123.hot-update.js", accept: "", want: ClassBypass},
		{name: "nextjs dev probe", path: "/__nextjs_original-stack-frame", accept: "", want: ClassBypass},
		{name: "devtools probe", path: "/.well-known/appspecific/com.chrome.devtools.json", accept: "", want: ClassBypass},
		{name: "unknown extension falls back to static", path: "/downloads/menu.pdf", accept: "", want: ClassStatic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.path, tt.accept); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
