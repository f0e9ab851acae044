package handlers

import "github.com/gofiber/fiber/v2"

// indexHTML is the minimal landing page; the real front-end is served
// separately and talks to these endpoints directly.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>AI Workspace</title>
  <style>
    body { font-family: Helvetica, Arial, sans-serif; margin: 40px auto; max-width: 640px; color: #333; }
    h1 { color: #4f46e5; border-bottom: 2px solid #eee; padding-bottom: 10px; }
    code { background: #f0f0f0; padding: 2px 5px; border-radius: 3px; }
  </style>
</head>
<body>
  <h1>AI Workspace</h1>
  <p>The backend is running. Tool endpoints accept <code>POST</code> requests;
  generated files are served under <code>/static</code>.</p>
</body>
</html>
`

// Index serves the landing page.
func Index() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(indexHTML)
	}
}

// Health is the liveness probe.
func Health() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendString("OK")
	}
}
