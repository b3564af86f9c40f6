package auth

import (
	"html/template"
	"io"
)

const InvalidCredentialsMessage = "Credenziali non valide, riprova."

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html><body>
{{if .Error}}<p style="color:red;">{{.Message}}</p>
{{end}}<form method="POST" action="/login">
Utente: <input name="username"/><br/>
Password: <input type="password" name="password"/><br/>
<button type="submit">Login</button>
</form>
</body></html>
`))

var welcomePage = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html><body>
<h1>Benvenuto, {{.}}!</h1>
<a href="/logout">Logout</a>
</body></html>
`))

type loginPageData struct {
	Error   bool
	Message string
}

func renderLogin(w io.Writer, showError bool) error {
	return loginPage.Execute(w, loginPageData{Error: showError, Message: InvalidCredentialsMessage})
}

func renderWelcome(w io.Writer, username string) error {
	return welcomePage.Execute(w, username)
}
