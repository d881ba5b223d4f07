package db

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "create users table",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				user_id INTEGER PRIMARY KEY AUTOINCREMENT,
				nickname TEXT UNIQUE NOT NULL,
				reg_date INTEGER NOT NULL,
				last_login INTEGER NOT NULL,
				times_viewed INTEGER DEFAULT 0,
				UNIQUE(user_id, nickname)
			)
		`,
	},
	{
		name: "create users profile table",
		sql: `
			CREATE TABLE IF NOT EXISTS users_profile (
				user_id INTEGER PRIMARY KEY REFERENCES users(user_id) ON DELETE CASCADE,
				firstname TEXT,
				lastname TEXT,
				email TEXT,
				website TEXT,
				picture TEXT,
				mobile TEXT,
				skype TEXT,
				age INTEGER,
				residence TEXT,
				gender TEXT,
				signature TEXT,
				avatar TEXT
			)
		`,
	},
	{
		name: "create messages table",
		sql: `
			CREATE TABLE IF NOT EXISTS messages (
				message_id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				body TEXT NOT NULL,
				timestamp INTEGER NOT NULL,
				ip TEXT,
				times_viewed INTEGER DEFAULT 0,
				reply_to INTEGER REFERENCES messages(message_id) ON DELETE CASCADE,
				user_nickname TEXT,
				user_id INTEGER,
				editor_nickname TEXT,
				FOREIGN KEY(user_id, user_nickname)
					REFERENCES users(user_id, nickname) ON DELETE SET NULL
			);
			CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
			CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(user_nickname);
		`,
	},
}

// seedStatements populate a fresh database with a small sample data set.
// INSERT OR IGNORE keeps seeding idempotent.
var seedStatements = []string{
	`INSERT OR IGNORE INTO users (user_id, nickname, reg_date, last_login, times_viewed) VALUES
		(1, 'Mystery', 1362017481, 1362017481, 0),
		(2, 'AxelW', 1357724086, 1357724086, 0),
		(3, 'HockeyFan', 1362012281, 1362012281, 0)`,
	`INSERT OR IGNORE INTO users_profile (user_id, firstname, lastname, email, website, picture,
			mobile, skype, age, residence, gender, signature, avatar) VALUES
		(1, 'Mystery', 'Williams', 'mystery@example.com', NULL, NULL,
			NULL, NULL, 35, 'Oulu', 'male', 'Hockey is life', 'av-mystery.jpg'),
		(2, 'Axel', 'Wayne', 'axel.wayne@example.com', 'http://axel.example.com', 'axel.jpg',
			'0441231234', 'axel.w', 28, 'Helsinki', 'male', NULL, 'av-axel.png'),
		(3, 'Erja', 'Kinnunen', 'erja.k@example.com', NULL, NULL,
			NULL, 'erja.k', 41, 'Tampere', 'female', 'Go Karpat!', NULL)`,
	`INSERT OR IGNORE INTO messages (message_id, title, body, timestamp, ip, times_viewed,
			reply_to, user_nickname, user_id, editor_nickname) VALUES
		(1, 'CSS: vertically center text', 'How do I center text vertically inside a div?',
			1362017481, '192.168.100.2', 0, NULL, 'AxelW', 2, NULL),
		(2, 'Re: CSS: vertically center text', 'Use flexbox with align-items: center.',
			1362019999, '192.168.100.7', 0, 1, 'Mystery', 1, NULL),
		(3, 'Best playoff run ever?', 'Which season had the best playoff run and why?',
			1362112981, '10.0.0.5', 0, NULL, 'HockeyFan', 3, NULL)`,
}
