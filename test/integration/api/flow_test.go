// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

//go:build integration

package api_test

import (
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/catalog"
)

const password = "Str0ngPass"

var _ = Describe("Accounts", func() {
	It("registers, signs in, and reads the profile", func() {
		status, body := call(http.MethodPost, "/auth/signup", "", map[string]string{
			"fullName": "Ada Lovelace", "email": "  Ada@Example.com ", "password": password,
		})
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body["message"]).To(Equal(auth.MsgRegistered))
		Expect(body["user"]).To(HaveKeyWithValue("email", "ada@example.com"))

		token := signIn("ada@example.com", password)

		status, body = call(http.MethodGet, "/auth/me", token, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("fullName", "Ada Lovelace"))
		Expect(body).To(HaveKeyWithValue("role", "USER"))
	})

	It("rejects a second registration of the same email", func() {
		signUpAndIn("Ada Lovelace", "ada@example.com", password)

		status, body := call(http.MethodPost, "/auth/signup", "", map[string]string{
			"fullName": "Someone Else", "email": "ADA@example.com", "password": password,
		})
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body["message"]).To(Equal(auth.MsgEmailTaken))
	})

	It("gives the same answer for an unknown email and a wrong password", func() {
		signUpAndIn("Ada Lovelace", "ada@example.com", password)

		status, unknown := call(http.MethodPost, "/auth/signin", "", map[string]string{
			"email": "nobody@example.com", "password": password,
		})
		Expect(status).To(Equal(http.StatusUnauthorized))

		status, wrong := call(http.MethodPost, "/auth/signin", "", map[string]string{
			"email": "ada@example.com", "password": "Wr0ngPass",
		})
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(wrong["message"]).To(Equal(unknown["message"]))
		Expect(wrong["message"]).To(Equal(auth.MsgInvalidCredentials))
	})

	It("locks the email after repeated failures", func() {
		signUpAndIn("Locked Out", "locked@example.com", password)

		for range lockoutThreshold {
			status, _ := call(http.MethodPost, "/auth/signin", "", map[string]string{
				"email": "locked@example.com", "password": "Wr0ngPass",
			})
			Expect(status).To(Equal(http.StatusUnauthorized))
		}

		status, body := call(http.MethodPost, "/auth/signin", "", map[string]string{
			"email": "locked@example.com", "password": password,
		})
		Expect(status).To(Equal(http.StatusTooManyRequests))
		Expect(body["message"]).To(Equal(auth.MsgTooManyAttempts))
	})

	It("changes the password and only accepts the new one", func() {
		token := signUpAndIn("Ada Lovelace", "ada@example.com", password)

		status, body := call(http.MethodPatch, "/auth/change-password", token, map[string]string{
			"currentPassword": "Wr0ngPass", "newPassword": "N3wPassword",
		})
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body["message"]).To(Equal(auth.MsgCurrentPasswordIncorrect))

		status, body = call(http.MethodPatch, "/auth/change-password", token, map[string]string{
			"currentPassword": password, "newPassword": "N3wPassword",
		})
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["message"]).To(Equal(auth.MsgPasswordChanged))

		status, _ = call(http.MethodPost, "/auth/signin", "", map[string]string{
			"email": "ada@example.com", "password": password,
		})
		Expect(status).To(Equal(http.StatusUnauthorized))
		signIn("ada@example.com", "N3wPassword")
	})

	It("requires a bearer token for the profile", func() {
		status, body := call(http.MethodGet, "/auth/me", "", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body["message"]).To(Equal(auth.MsgTokenInvalid))

		status, _ = call(http.MethodGet, "/auth/me", "not-a-jwt", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
	})
})

var _ = Describe("Movies", func() {
	var userToken, adminToken string

	BeforeEach(func() {
		userToken = signUpAndIn("Regular Viewer", "viewer@example.com", password)
		signUpAndIn("Catalog Admin", "admin@example.com", password)
		adminToken = promote("admin@example.com", password)
	})

	It("lets an admin manage movies and a user read them", func() {
		status, body := call(http.MethodPost, "/movies", adminToken, map[string]any{
			"title": "A New Hope", "episodeId": 4, "director": "George Lucas",
			"producer": "Gary Kurtz", "releaseDate": "1977-05-25", "openingCrawl": "It is a period of civil war.",
		})
		Expect(status).To(Equal(http.StatusCreated))
		id := int64(body["id"].(float64))

		status, body = call(http.MethodGet, fmt.Sprintf("/movies/%d", id), userToken, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["title"]).To(Equal("A New Hope"))

		status, body = call(http.MethodPut, fmt.Sprintf("/movies/%d", id), adminToken, map[string]any{
			"director": "G. Lucas",
		})
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["message"]).To(Equal(catalog.MsgMovieUpdated))
		Expect(body["movie"]).To(HaveKeyWithValue("director", "G. Lucas"))
		Expect(body["movie"]).To(HaveKeyWithValue("title", "A New Hope"))

		status, body = call(http.MethodGet, "/movies?title=new", "", nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["count"]).To(BeEquivalentTo(1))

		status, body = call(http.MethodDelete, fmt.Sprintf("/movies/%d", id), adminToken, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["message"]).To(Equal(fmt.Sprintf("Movie with ID %d deleted successfully.", id)))

		status, _ = call(http.MethodGet, fmt.Sprintf("/movies/%d", id), userToken, nil)
		Expect(status).To(Equal(http.StatusNotFound))
	})

	It("forbids writes for the USER role", func() {
		status, body := call(http.MethodPost, "/movies", userToken, map[string]any{"title": "Bootleg"})
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body["message"]).To(Equal("You need this roles: ADMIN"))

		status, _ = call(http.MethodPost, "/movies", "", map[string]any{"title": "Bootleg"})
		Expect(status).To(Equal(http.StatusUnauthorized))

		Expect(testutil.ToFloat64(env.metrics.AccessDecisions.WithLabelValues("movies.create", "forbidden"))).
			To(BeNumerically(">=", 1))
	})

	It("rejects a duplicate episode", func() {
		movie := map[string]any{"title": "A New Hope", "episodeId": 4}
		status, _ := call(http.MethodPost, "/movies", adminToken, movie)
		Expect(status).To(Equal(http.StatusCreated))

		status, body := call(http.MethodPost, "/movies", adminToken, map[string]any{"title": "Copy", "episodeId": 4})
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body["message"]).To(Equal(catalog.MsgEpisodeTaken))
	})

	It("syncs films from the upstream source by episode", func() {
		env.films.films = []catalog.Film{
			{Title: "A New Hope", EpisodeID: 4, Director: "George Lucas"},
			{Title: "The Empire Strikes Back", EpisodeID: 5, Director: "Irvin Kershner"},
			{Title: "", EpisodeID: 0},
		}

		status, body := call(http.MethodPost, "/movies/sync", adminToken, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["created"]).To(BeEquivalentTo(2))
		Expect(body["skipped"]).To(BeEquivalentTo(1))

		status, body = call(http.MethodPost, "/movies/sync", adminToken, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["created"]).To(BeEquivalentTo(0))
		Expect(body["updated"]).To(BeEquivalentTo(2))

		status, body = call(http.MethodGet, "/movies", "", nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["count"]).To(BeEquivalentTo(2))
	})
})
