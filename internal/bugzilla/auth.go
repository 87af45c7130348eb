package bugzilla

import "context"

type loginParams struct {
	Login    string `xmlrpc:"login"`
	Password string `xmlrpc:"password"`
}

// CheckCredentials returns a *ConfigError unless both login and password
// are set.
func CheckCredentials(login, password string) error {
	switch {
	case login == "" && password == "":
		return &ConfigError{Reason: "empty login and password, please check the bugzilla settings"}
	case login == "":
		return &ConfigError{Reason: "empty login, please check the bugzilla settings"}
	case password == "":
		return &ConfigError{Reason: "empty password, please check the bugzilla settings"}
	}
	return nil
}

// Login authenticates the session. The session cookie returned by the
// server is kept by the caller's cookie jar.
func Login(ctx context.Context, c Caller, login, password string) error {
	if err := CheckCredentials(login, password); err != nil {
		return err
	}
	return c.Call(ctx, "User.login", nil, loginParams{Login: login, Password: password})
}

// Logout ends the authenticated session.
func Logout(ctx context.Context, c Caller) error {
	return c.Call(ctx, "User.logout", nil, "")
}
