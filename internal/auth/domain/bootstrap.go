package domain

type BootstrapData struct {
	AdminUsername string
	AdminPassword string
}
