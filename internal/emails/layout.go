package emails

import "fmt"

// layout wraps body HTML in the shared email shell.
func layout(body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2933; margin: 0; padding: 0;">
    <div style="max-width: 560px; margin: 0 auto; padding: 24px;">
      <h2 style="color: #364fc7;">TaskFlow Pro</h2>
      %s
      <hr style="border: none; border-top: 1px solid #e4e7eb; margin: 24px 0;">
      <p style="font-size: 12px; color: #7b8794;">You are receiving this email because of activity on your TaskFlow Pro account.</p>
    </div>
  </body>
</html>`, body)
}
