package web

import "net/http"

const styleCSS = `*{box-sizing:border-box}
body{font-family:system-ui,Segoe UI,Roboto,Arial,sans-serif;margin:0;background:#f5f7fb;color:#1f2937}
a{color:#4f46e5;text-decoration:none} a:hover{text-decoration:underline}
header{padding:12px 20px;background:#fff;box-shadow:0 1px 2px rgba(0,0,0,.06);display:flex;justify-content:space-between;align-items:center}
header .brand{font-size:1.4rem;font-weight:700;color:#4f46e5}
header nav{display:flex;gap:12px;align-items:center}
.container{max-width:1100px;margin:0 auto;padding:20px}
.narrow{max-width:460px}
.layout{display:grid;grid-template-columns:220px 1fr;gap:20px}
.side a{display:block;padding:8px 10px;border-radius:6px;color:#374151}
.side a:hover{background:#eef2ff;text-decoration:none}
table{width:100%;border-collapse:collapse;background:#fff}
th,td{padding:10px;border-bottom:1px solid #e5e7eb;text-align:left}
th{background:#f9fafb}
.btn{display:inline-block;padding:8px 14px;border:1px solid #d1d5db;background:#fff;color:#1f2937;border-radius:6px;cursor:pointer;font:inherit}
.btn-primary{background:#4f46e5;border-color:#4f46e5;color:#fff}
.btn-danger{background:#dc2626;border-color:#dc2626;color:#fff}
.btn[disabled]{opacity:.5;cursor:not-allowed}
.inline{display:inline}
label{display:block;font-weight:500;margin:10px 0 4px}
input,textarea,select{width:100%;padding:8px;border:1px solid #d1d5db;border-radius:6px;font:inherit;background:#fff}
.grid{display:grid;gap:16px} .cols-2{grid-template-columns:1fr 1fr} .cols-3{grid-template-columns:repeat(3,1fr)}
.card{border:1px solid #e5e7eb;border-radius:10px;padding:16px;background:#fff}
.alert{padding:10px 14px;border-radius:6px;margin:10px 0}
.alert-error{background:#fef2f2;color:#b91c1c;border:1px solid #fecaca}
.alert-success{background:#f0fdf4;color:#15803d;border:1px solid #bbf7d0}
.badge{display:inline-block;padding:2px 8px;border-radius:999px;font-size:.8rem}
.badge-active{background:#dcfce7;color:#166534}
.badge-inactive{background:#f3f4f6;color:#374151}
.badge-expired{background:#fee2e2;color:#991b1b}
.swatch{display:inline-block;width:28px;height:28px;border-radius:50%;border:1px solid #d1d5db;vertical-align:middle}
.stat{font-size:2rem;font-weight:700;color:#4f46e5}
.small{color:#6b7280;font-size:.9rem} .mono{font-family:ui-monospace,Menlo,Consolas,monospace}
img.qr{width:240px;height:240px;image-rendering:pixelated}
h1,h2,h3{margin:12px 0}`

func serveCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(styleCSS))
}
